package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/joeberkovitz/gmnx-viewer/config"
	"github.com/joeberkovitz/gmnx-viewer/engine"
	"github.com/joeberkovitz/gmnx-viewer/logger"
	"github.com/joeberkovitz/gmnx-viewer/surface"
	"github.com/joeberkovitz/gmnx-viewer/watch"
)

var (
	serveAddr    string
	serveDemo    bool
	serveNoAudio bool
	serveWatch   bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", config.GetViewerConfig().HTTPAddr, "address to serve on")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "serve the built-in demo score")
	serveCmd.Flags().BoolVar(&serveNoAudio, "no-audio", false, "run without the speaker")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "rebuild when the score file changes")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [score.yaml]",
	Short: "Serve score state and playback control over HTTP",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(args)
	},
}

func runServe(args []string) error {
	log := logger.GetProjectLogger()
	cfg := config.GetViewerConfig()

	eng, err := newEngine(cfg, serveNoAudio)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := buildFromArgs(eng, args, serveDemo); err != nil {
		return err
	}

	if serveWatch {
		if eng.Path() == "" {
			return fmt.Errorf("--watch needs a score file to watch")
		}
		w, err := watch.New(eng.Path(), func() {
			if err := eng.Reload(); err != nil {
				log.Warnf("reload failed, keeping the previous build: %v", err)
			}
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	log.Infof("serving on %s", serveAddr)
	return http.ListenAndServe(serveAddr, cors.Default().Handler(newRouter(eng)))
}

func newRouter(eng *engine.Engine) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/status", handleStatus(eng)).Methods("GET")
	router.HandleFunc("/performances", handlePerformances(eng)).Methods("GET")
	router.HandleFunc("/performances/{index}/actions", handleActions(eng)).Methods("GET")
	router.HandleFunc("/views/{name}", handleView(eng)).Methods("GET")
	router.HandleFunc("/play/{index}", handlePlay(eng)).Methods("POST")
	router.HandleFunc("/stop", handleStop(eng)).Methods("POST")
	return router
}

type statusPayload struct {
	Title    string  `json:"title"`
	BuildID  string  `json:"buildId"`
	Playing  string  `json:"playing,omitempty"`
	Elapsed  float64 `json:"elapsedSeconds"`
	Progress float64 `json:"progress"`
}

func handleStatus(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st statusPayload
		if doc := eng.Document(); doc != nil {
			st.Title = doc.Title
		}
		st.BuildID = eng.BuildID()
		if p := eng.Active(); p != nil {
			st.Playing = p.Name()
			st.Elapsed = p.Elapsed().Seconds()
			st.Progress = p.Progress()
		}
		json.NewEncoder(w).Encode(st)
	}
}

type perfPayload struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	UnitSeconds float64 `json:"unitSeconds"`
	Horizon     float64 `json:"horizonSeconds"`
	Actions     int     `json:"actions"`
	Decorations int     `json:"decorations"`
	Playing     bool    `json:"playing"`
}

func handlePerformances(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := make([]perfPayload, 0)
		for i, p := range eng.Performances() {
			res = append(res, perfPayload{
				Index:       i,
				Name:        p.Name(),
				Kind:        p.Kind().String(),
				UnitSeconds: p.UnitSeconds(),
				Horizon:     p.Horizon().Seconds(),
				Actions:     len(p.Actions()),
				Decorations: p.DecorationCount(),
				Playing:     p.Playing(),
			})
		}
		json.NewEncoder(w).Encode(res)
	}
}

type actionPayload struct {
	AtSeconds float64 `json:"atSeconds"`
	Kind      string  `json:"kind"`
	Target    string  `json:"target"`
}

func handleActions(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(mux.Vars(r)["index"])
		if err != nil {
			http.Error(w, "index must be a number", http.StatusBadRequest)
			return
		}
		p, err := eng.Performance(index)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		res := make([]actionPayload, 0)
		for _, a := range p.Actions() {
			res = append(res, actionPayload{
				AtSeconds: a.At.Seconds(),
				Kind:      a.Kind.String(),
				Target:    a.Target,
			})
		}
		json.NewEncoder(w).Encode(res)
	}
}

type viewPayload struct {
	Name     string   `json:"name"`
	Attached []string `json:"attached"`
}

func handleView(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		s, err := eng.View(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		payload := viewPayload{Name: s.Name(), Attached: []string{}}
		if m, ok := s.(*surface.Memory); ok {
			payload.Attached = m.AttachedIDs()
		}
		json.NewEncoder(w).Encode(payload)
	}
}

func handlePlay(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(mux.Vars(r)["index"])
		if err != nil {
			http.Error(w, "index must be a number", http.StatusBadRequest)
			return
		}
		if err := eng.Play(index); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleStop(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng.StopAll()
		w.WriteHeader(http.StatusNoContent)
	}
}
