package main

import (
	"github.com/buddyfleet/buddyops/cmd/internal/args"
	"github.com/buddyfleet/buddyops/cmd/internal/entry"
	"github.com/buddyfleet/buddyops/cmd/internal/environment"
	"github.com/buddyfleet/buddyops/cmd/internal/logger"
	"github.com/buddyfleet/buddyops/cmd/internal/output"
	"go.uber.org/zap"
	"log"
	"net/http"
)

// modelsHandler serves the discovery result. Like the discover tool it always answers with the
// tiers, a failed discovery is reported in the "error" field.
func modelsHandler(arguments args.Arguments) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header()["Allow"] = []string{http.MethodGet}
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		result := entry.Discover(r.Context(), arguments)

		w.Header()["Content-Type"] = []string{"application/json; charset=utf-8"}
		w.WriteHeader(200)
		if err := output.WriteJsonTo(w, result); err != nil {
			zap.L().Error(err.Error())
		}
	}
}

func newMux(arguments args.Arguments) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models", modelsHandler(arguments))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = []string{"application/json; charset=utf-8"}
		w.WriteHeader(200)
		if err := output.WriteJsonTo(w, map[string]string{"Hello": r.RequestURI}); err != nil {
			zap.L().Error(err.Error())
		}
	})
	return mux
}

func main() {
	logger.BuildLogger("info")

	// settings come from the config file, BUDDY_ environment variables and the secrets file
	functionArgs, _, err := args.ParseArgs("function", []string{})

	if err != nil {
		zap.L().Fatal(err.Error())
	}

	logger.BuildLogger(functionArgs.LogLevel)

	listenAddr := ":" + environment.GetPort()
	log.Printf("About to listen on %s. Go to https://127.0.0.1%s/", listenAddr, listenAddr)
	log.Fatal(http.ListenAndServe(listenAddr, newMux(functionArgs)))
}
