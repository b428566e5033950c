package server

import (
	"encoding/json"
	"net/http"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/utils"
)

type healthResponse struct {
	Status      string         `json:"status"`
	SnapshotSeq uint64         `json:"snapshot_seq"`
	CommittedAt string         `json:"committed_at,omitempty"`
	Patterns    int            `json:"patterns"`
	Trips       int            `json:"trips"`
	Updater     map[string]any `json:"updater,omitempty"`
}

// handleHealth reports the published snapshot without triggering a commit.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.config.Snapshots.Current()
	resp := healthResponse{
		Status:      "ok",
		SnapshotSeq: snap.Seq(),
		Patterns:    len(snap.Patterns()),
		Trips:       snap.TripCount(),
	}
	if t := snap.CommittedAt(); !t.IsZero() {
		resp.CommittedAt = utils.Iso8601(t.In(s.config.Index.Location()))
	}
	if s.config.Reporter != nil {
		resp.Updater = s.config.Reporter.Report()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
