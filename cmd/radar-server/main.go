package main

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blakeridgway/supercell-wx/common"
	"github.com/blakeridgway/supercell-wx/manager"
)

var (
	listenAddr string
	logLevel   string

	requestsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scwx_requests_total",
		Help: "HTTP requests served by route",
	}, []string{"route"})

	newDataEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scwx_new_data_events_total",
		Help: "NewDataAvailable events published by product group",
	}, []string{"group"})
)

// server exposes the product manager registry over HTTP.
type server struct {
	registry *manager.Registry

	// managers pinned by the server so the weak registry entries stay
	// live while we serve them.
	managersMu sync.Mutex
	managers   map[string]*manager.RadarProductManager
}

func main() {
	root := &cobra.Command{
		Use:   "radar-server",
		Short: "Serve NEXRAD product metadata over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	root.Flags().StringVar(&listenAddr, "listen", "0.0.0.0:8081", "listen address")
	root.Flags().StringVar(&logLevel, "log-level", "info", "logging level")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	if level, err := logrus.ParseLevel(logLevel); err == nil {
		logrus.SetLevel(level)
	}

	srv := &server{
		managers: make(map[string]*manager.RadarProductManager),
	}
	srv.registry = manager.NewRegistry(manager.RegistryConfig{
		EventSink: srv.onEvent,
	})

	r := mux.NewRouter()
	r.HandleFunc("/radar/{site}/level2", srv.level2LatestHandler)
	r.HandleFunc("/radar/{site}/level3/products", srv.level3ProductsHandler)
	r.HandleFunc("/radar/{site}/level3/categories", srv.level3CategoriesHandler)
	r.HandleFunc("/radar/{site}/refresh/{group}", srv.refreshHandler).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr: listenAddr,
		// Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}

	logrus.Infof("listening on %s", listenAddr)
	return httpServer.ListenAndServe()
}

func (s *server) onEvent(event any) {
	switch e := event.(type) {
	case manager.NewDataAvailable:
		newDataEvents.WithLabelValues(e.Group.String()).Inc()
		logrus.Infof("new data available: %s %s %s", e.Group, e.Product, e.LatestTime)
	case manager.Level3ProductsChanged:
		logrus.Infof("level 3 products changed: %s", e.RadarID)
	case manager.RadarProductManagerCreated:
		logrus.Infof("manager created: %s", e.RadarID)
	}
}

func (s *server) instance(site string) *manager.RadarProductManager {
	s.managersMu.Lock()
	defer s.managersMu.Unlock()

	if m, ok := s.managers[site]; ok {
		return m
	}
	m := s.registry.Instance(site)
	s.managers[site] = m
	return m
}

func (s *server) level2LatestHandler(w http.ResponseWriter, req *http.Request) {
	requestsServed.WithLabelValues("level2_latest").Inc()

	site := mux.Vars(req)["site"]
	m := s.instance(site)

	// A zero time selects the latest cached volume.
	scan, cut, cuts := m.GetLevel2Data("REF", 0.5, time.Time{})
	if len(scan) == 0 {
		http.Error(w, "no level 2 data cached", http.StatusNotFound)
		return
	}

	header := scan[0].Header
	meta := struct {
		RadarID       string    `json:"radar_id"`
		Time          time.Time `json:"time"`
		ElevationCut  float32   `json:"elevation_cut"`
		ElevationCuts []float32 `json:"elevation_cuts"`
		Radials       int       `json:"radials"`
	}{
		RadarID:       string(header.RadarIdentifier[:]),
		Time:          header.Date(),
		ElevationCut:  cut,
		ElevationCuts: cuts,
		Radials:       len(scan),
	}

	j, _ := json.Marshal(meta)
	w.Write(j)
}

func (s *server) level3ProductsHandler(w http.ResponseWriter, req *http.Request) {
	requestsServed.WithLabelValues("level3_products").Inc()

	site := mux.Vars(req)["site"]
	m := s.instance(site)
	m.UpdateAvailableProducts()

	j, _ := json.Marshal(m.GetLevel3Products())
	w.Write(j)
}

func (s *server) level3CategoriesHandler(w http.ResponseWriter, req *http.Request) {
	requestsServed.WithLabelValues("level3_categories").Inc()

	site := mux.Vars(req)["site"]
	m := s.instance(site)

	categories := make(map[string]map[string][]string)
	for category, products := range m.GetAvailableLevel3Categories() {
		categories[common.GetLevel3CategoryName(category)] = products
	}

	j, _ := json.Marshal(categories)
	w.Write(j)
}

func (s *server) refreshHandler(w http.ResponseWriter, req *http.Request) {
	requestsServed.WithLabelValues("refresh").Inc()

	vars := mux.Vars(req)
	site := vars["site"]
	m := s.instance(site)

	switch vars["group"] {
	case "level2":
		m.EnableRefresh(common.Level2, "", true)
	case "level3":
		product := req.URL.Query().Get("product")
		if product == "" {
			product = common.DefaultLevel3Product
		}
		m.EnableRefresh(common.Level3, product, true)
	default:
		http.Error(w, "unknown product group", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
