package server

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"net/http"
	"strings"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/formatter"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/siri"
)

func (s *Server) handleEstimatedTimetableJSON(w http.ResponseWriter, r *http.Request) {
	res, err := s.estimatedTimetable(r)
	if err != nil {
		s.writeError(w, "json", err)
		return
	}
	buf, err := formatter.NewResponseBuilder().BuildJSON(res)
	if err != nil {
		s.writeError(w, "json", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
}

func (s *Server) handleEstimatedTimetableXML(w http.ResponseWriter, r *http.Request) {
	res, err := s.estimatedTimetable(r)
	if err != nil {
		s.writeError(w, "xml", err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(formatter.NewResponseBuilder().BuildXML(res))
}

// estimatedTimetable builds the filtered ET response from the snapshot
// current at request time.
func (s *Server) estimatedTimetable(r *http.Request) (*siri.SiriResponse, error) {
	query, err := parseAndValidateEstimatedTimetable(r.URL.Query(), s.config.Index)
	if err != nil {
		return nil, err
	}
	snap := s.config.Snapshots.GetSnapshot()
	et := s.config.Converter.BuildEstimatedTimetable(snap, s.config.Clock.Now())
	et = formatter.FilterEstimatedTimetable(et, query.MonitoringRef, query.LineRef, query.DirectionRef)
	return formatter.WrapEstimatedTimetableResponse(et, s.config.Converter.Codespace()), nil
}

type errorPayload struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, format string, err error) {
	status := http.StatusInternalServerError
	var qerr *QueryError
	if errors.As(err, &qerr) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("building estimated timetable failed", "error", err)
	}
	if format == "xml" {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("<Siri xmlns=\"http://www.siri.org.uk/siri\"><ServiceDelivery><ErrorCondition><OtherError><ErrorText>" +
			xmlText(err.Error()) + "</ErrorText></OtherError></ErrorCondition></ServiceDelivery></Siri>"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorPayload{Error: err.Error()})
}

func xmlText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
