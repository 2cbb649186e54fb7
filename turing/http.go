package turing

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
)

// intT and strT are the JSON envelopes used on the HTTP surface,
// {"int": ...} and {"str": ...}.
type intT struct {
	Int int `json:"int"`
}

type strT struct {
	Str string `json:"str"`
}

// NewRouter exposes a Screen over HTTP.  Each handler runs the same
// sync preamble the CLI actions do.  A request body that does not decode
// maps to 400; errors from the screen map to 500.  Either way the error
// text is the body.
func NewRouter(s *Screen) chi.Router {
	r := chi.NewRouter()
	r.Post("/sync", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, s.Sync())
	})
	r.Post("/restart", func(w http.ResponseWriter, _ *http.Request) {
		s.DelaySync()
		respond(w, s.Restart())
	})
	r.Post("/clear-image", func(w http.ResponseWriter, _ *http.Request) {
		s.DelaySync()
		respond(w, s.ClearImage())
	})
	r.Post("/stop-play", func(w http.ResponseWriter, _ *http.Request) {
		s.DelaySync()
		respond(w, s.StopPlay())
	})
	r.Post("/brightness", func(w http.ResponseWriter, req *http.Request) {
		v := intT{}
		if err := json.NewDecoder(req.Body).Decode(&v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.DelaySync()
		respond(w, s.Brightness(v.Int))
	})
	r.Post("/frame-rate", func(w http.ResponseWriter, req *http.Request) {
		v := intT{}
		if err := json.NewDecoder(req.Body).Decode(&v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.DelaySync()
		respond(w, s.FrameRate(v.Int))
	})
	r.Post("/settings", func(w http.ResponseWriter, req *http.Request) {
		c := Settings{}
		if err := json.NewDecoder(req.Body).Decode(&c); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.DelaySync()
		respond(w, s.SaveSettings(c))
	})
	r.Get("/storage-info", func(w http.ResponseWriter, _ *http.Request) {
		s.DelaySync()
		si, err := s.StorageInfo()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(si)
	})
	r.Get("/files/{type}", func(w http.ResponseWriter, req *http.Request) {
		dir := RemoteImageDir
		if chi.URLParam(req, "type") == "video" {
			dir = RemoteVideoDir
		}
		s.DelaySync()
		names, err := s.ListStorage(dir)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(names)
	})
	r.Post("/play-select", func(w http.ResponseWriter, req *http.Request) {
		v := strT{}
		if err := json.NewDecoder(req.Body).Decode(&v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		respond(w, s.PlaySelect(v.Str))
	})
	r.Post("/delete", func(w http.ResponseWriter, req *http.Request) {
		v := strT{}
		if err := json.NewDecoder(req.Body).Decode(&v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.DelaySync()
		respond(w, s.Delete(v.Str))
	})
	return r
}

func respond(w http.ResponseWriter, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
