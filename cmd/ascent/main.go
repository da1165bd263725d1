package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vector000/pegas"
)

// This binary only reads the scenario file, propagates the ascent and
// reports the results; all physics lives in the library.

var (
	scenario string
	export   string
	serve    string
	verify   bool
)

func init() {
	flag.StringVar(&scenario, "scenario", "", "ascent scenario TOML file")
	flag.StringVar(&export, "export", "", "trajectory CSV path (without extension)")
	flag.StringVar(&serve, "serve", "", "address to serve live telemetry and results on (e.g. :8080)")
	flag.BoolVar(&verify, "verify", false, "RK4 closure check of the achieved orbit after cutoff")
}

func main() {
	flag.Parse()
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	if scenario == "" {
		log.Fatal("no scenario provided")
	}

	sc, err := pegas.LoadScenario(scenario)
	if err != nil {
		log.Fatalf("loading scenario: %s", err)
	}
	ctx := pegas.DefaultContext()

	sim, err := pegas.NewSimulation(ctx, sc.Vehicle, sc.Initial, sc.Control, sc.Dt, logger)
	if err != nil {
		log.Fatalf("building simulation: %s", err)
	}
	if export != "" {
		sim.StreamTo(pegas.ExportConfig{Filename: export, AsCSV: true, Epoch: time.Now().UTC()})
	}

	var (
		resultsMu   sync.Mutex
		resultsJSON []byte
	)
	if serve != "" {
		reg := prometheus.NewRegistry()
		gauges := pegas.NewFlightGauges(reg)
		sim.Hook = gauges.Hook(ctx)

		r := mux.NewRouter()
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		r.HandleFunc("/results", func(w http.ResponseWriter, _ *http.Request) {
			resultsMu.Lock()
			defer resultsMu.Unlock()
			if resultsJSON == nil {
				http.Error(w, "run still in progress", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(resultsJSON)
		})
		go func() {
			if err := http.ListenAndServe(serve, r); err != nil {
				log.Fatalf("serving telemetry: %s", err)
			}
		}()
	}

	res, err := sim.Propagate()
	if err != nil {
		log.Fatalf("propagation: %s", err)
	}

	logger.Log("level", "notice", "subsys", "ascent", "eng", res.ENG,
		"alt(km)", res.AltitudeKm, "ap(km)", res.Apoapsis, "pe(km)", res.Periapsis,
		"v(m/s)", res.Velocity, "maxQ(Pa)", res.MaxQv, "maxQt(s)", res.MaxQt,
		"lostTotal(m/s)", res.LostTotal, "burnLeft(s)", res.BurnTimeLeft,
		"orbit", res.Orbit)

	if verify && res.ENG == pegas.EngCutoff {
		last := len(res.Plots.T) - 1
		pegas.VerifyOrbitClosure(ctx, res.Plots.R[last], res.Plots.V[last], logger)
	}

	if serve != "" {
		encoded, err := json.Marshal(res)
		if err != nil {
			log.Fatalf("encoding results: %s", err)
		}
		resultsMu.Lock()
		resultsJSON = encoded
		resultsMu.Unlock()
		logger.Log("level", "info", "subsys", "ascent", "serving", serve)
		select {}
	}
}
