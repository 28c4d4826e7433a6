package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
)

// ConfigAPI provides HTTP endpoints to view and validate configuration
type ConfigAPI struct {
	cfg    *Config
	mu     sync.RWMutex
	router *mux.Router
}

func NewConfigAPI(cfg *Config) *ConfigAPI {
	api := &ConfigAPI{
		cfg:    cfg,
		router: mux.NewRouter(),
	}
	api.routes()
	return api
}

func (api *ConfigAPI) Router() *mux.Router {
	return api.router
}

func (api *ConfigAPI) routes() {
	api.router.HandleFunc("/configure", api.getConfig).Methods("GET")
	api.router.HandleFunc("/configure/", api.getConfig).Methods("GET")
	api.router.HandleFunc("/configure/validate", api.validateConfig).Methods("POST")
	api.router.HandleFunc("/configure/{section}", api.getSection).Methods("GET")
}

func (api *ConfigAPI) getConfig(w http.ResponseWriter, r *http.Request) {
	api.mu.RLock()
	defer api.mu.RUnlock()
	writeJSON(w, api.safeConfigCopy())
}

func (api *ConfigAPI) validateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid config payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("invalid configuration: %v", err), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{"valid": true, "message": "configuration is valid"})
}

func (api *ConfigAPI) getSection(w http.ResponseWriter, r *http.Request) {
	api.mu.RLock()
	defer api.mu.RUnlock()

	safe := api.safeConfigCopy()
	var section interface{}
	switch mux.Vars(r)["section"] {
	case "server":
		section = safe.Server
	case "log":
		section = safe.Log
	case "llm":
		section = safe.LLM
	case "audit":
		section = safe.Audit
	case "history":
		section = safe.History
	case "report":
		section = safe.Report
	case "workers":
		section = safe.Workers
	default:
		http.Error(w, fmt.Sprintf("unknown section: %s", mux.Vars(r)["section"]), http.StatusNotFound)
		return
	}
	writeJSON(w, section)
}

// safeConfigCopy returns a copy with every secret masked.
func (api *ConfigAPI) safeConfigCopy() *Config {
	c := *api.cfg
	c.Auth.AllowedTools = append([]string(nil), api.cfg.Auth.AllowedTools...)
	mask := func(s *string) {
		if *s != "" {
			*s = "***"
		}
	}
	mask(&c.Auth.Token)
	mask(&c.LLM.APIKey)
	mask(&c.Report.AccessKey)
	mask(&c.Report.SecretKey)
	mask(&c.History.DSN)
	return &c
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
