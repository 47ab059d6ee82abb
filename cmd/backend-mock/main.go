package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Clark-Hu/cinema-booking/internal/backendmock"
)

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "", "path to a fixture file; empty uses the built-in sample")
		token   = flag.String("token", "", "bearer token accepted on authenticated routes; empty accepts any")
		logReqs = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	fx := backendmock.SampleFixture(time.Now())
	if *data != "" {
		loaded, err := backendmock.LoadFixture(*data)
		if err != nil {
			log.Fatalf("load fixture: %v", err)
		}
		fx = loaded
	}

	var handler http.Handler = backendmock.New(fx, *token)
	if *logReqs {
		handler = middleware.Logger(handler)
	}

	addr := ":" + *port
	log.Printf("mock backend listening on %s (%d movies, %d showtimes)", addr, len(fx.Movies), len(fx.Showtimes))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
