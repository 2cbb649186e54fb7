// screensrv exposes a Turing Smart Screen over HTTP so clients can
// drive it with ordinary HTTP libraries instead of USB stacks.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/phstudy/turing-smart-screen-cli/turing"
	"github.com/phstudy/turing-smart-screen-cli/usbbulk"
)

func main() {
	addr := flag.String("addr", ":8777", "address to listen on")
	flag.Parse()

	dev, err := usbbulk.Open()
	if err != nil {
		log.Fatal(err)
	}
	scr := turing.NewScreen(dev)

	// release the USB handle on the way out, whatever the way out is
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("shutting down")
		dev.Close()
		os.Exit(0)
	}()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Mount("/", turing.NewRouter(scr))

	log.Println("now listening for requests at", *addr)
	err = http.ListenAndServe(*addr, r)
	dev.Close()
	log.Fatal(err)
}
