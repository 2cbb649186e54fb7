// immich-display pulls a random photo of a person from an Immich server,
// fits it to the panel, and pushes it to the screen.
package main

import (
	"flag"
	"image/png"
	"log"
	"os"

	"github.com/phstudy/turing-smart-screen-cli/immich"
	"github.com/phstudy/turing-smart-screen-cli/turing"
	"github.com/phstudy/turing-smart-screen-cli/usbbulk"
)

func main() {
	url := flag.String("url", os.Getenv("IMMICH_URL"), "Immich API base URL, e.g. https://photos.example.com/api")
	key := flag.String("key", os.Getenv("IMMICH_API_KEY"), "Immich API key")
	person := flag.String("person", "", "person id to pick photos of")
	out := flag.String("out", "immich-display.png", "where to write the prepared PNG")
	dry := flag.Bool("dry-run", false, "prepare the PNG but do not touch the device")
	flag.Parse()

	if *url == "" || *key == "" || *person == "" {
		log.Fatal("need --url, --key and --person")
	}

	c := &immich.Client{BaseURL: *url, APIKey: *key}
	asset, err := c.RandomPersonAsset(*person)
	if err != nil {
		log.Fatal(err)
	}
	detail, err := c.AssetDetail(asset.ID)
	if err != nil {
		log.Fatal(err)
	}
	img, err := c.Download(asset.ID)
	if err != nil {
		log.Fatal(err)
	}

	face, haveFace := immich.FaceCenter(detail, *person)
	fitted := immich.Portrait(img, face, haveFace)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	if err := png.Encode(f, fitted); err != nil {
		f.Close()
		log.Fatal(err)
	}
	f.Close()
	log.Printf("prepared %s from asset %s", *out, asset.ID)

	if *dry {
		return
	}

	dev, err := usbbulk.Open()
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Close()
	scr := turing.NewScreen(dev)
	scr.DelaySync()
	if err := scr.SendImage(*out, turing.DefaultImageChunk); err != nil {
		log.Fatal(err)
	}
}
