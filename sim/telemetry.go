package sim

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/indcloud/console/data"
	log "github.com/sirupsen/logrus"
)

func (s *Server) deviceSim(id string) *DeviceSim {
	s.simLock.Lock()
	defer s.simLock.Unlock()
	d, ok := s.sims[id]
	if !ok {
		d = NewDeviceSim(id)
		s.sims[id] = d
	}
	return d
}

func parseRange(req *http.Request) (time.Time, time.Time, error) {
	q := req.URL.Query()
	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		return from, from, fmt.Errorf("invalid from: %w", err)
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		return from, to, fmt.Errorf("invalid to: %w", err)
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("end time must be after start time")
	}
	return from, to, nil
}

func (s *Server) aggregate(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	from, to, err := parseRange(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agg, err := data.ParseAggregation(q.Get("aggregation"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := data.AggregateQuery{
		DeviceID:    q.Get("deviceId"),
		Variable:    q.Get("variable"),
		Aggregation: agg,
		Interval:    q.Get("interval"),
		From:        from,
		To:          to,
	}
	if err := query.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.delay != nil {
		select {
		case <-time.After(s.delay(query)):
		case <-req.Context().Done():
			return
		}
	}

	if s.fail != nil && s.fail(query) {
		writeError(w, http.StatusInternalServerError, "simulated failure")
		return
	}

	if _, err := s.store.Device(query.DeviceID); err != nil {
		// the backend answers unknown devices with an empty series
		writeJSON(w, http.StatusOK, []data.AggregatePoint{})
		return
	}

	pts := s.deviceSim(query.DeviceID).Aggregate(query.Variable, agg, query.Interval, from, to)
	writeJSON(w, http.StatusOK, pts)
}

func (s *Server) exportJSON(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if _, err := s.store.Device(id); err != nil {
		writeStoreError(w, err)
		return
	}
	from, to, err := parseRange(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pts := s.deviceSim(id).Points(from, to)
	if pts == nil {
		pts = []data.TelemetryPoint{}
	}
	writeJSON(w, http.StatusOK, pts)
}

func (s *Server) exportCSV(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if _, err := s.store.Device(id); err != nil {
		writeStoreError(w, err)
		return
	}
	from, to, err := parseRange(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"telemetry-%v.csv\"", id))

	cw := csv.NewWriter(w)
	vars := append([]string{}, Variables...)
	sort.Strings(vars)
	_ = cw.Write(append([]string{"timestamp", "deviceId"}, vars...))
	for _, p := range s.deviceSim(id).Points(from, to) {
		row := []string{p.Timestamp.Format(time.RFC3339), p.DeviceID}
		for _, v := range vars {
			row = append(row, strconv.FormatFloat(p.Variables[v], 'f', 3, 64))
		}
		_ = cw.Write(row)
	}
	cw.Flush()
}

// serveTelemetry pushes a reading for every active device each interval
func (s *Server) serveTelemetry(rw http.ResponseWriter, req *http.Request) {
	if _, ok := s.key.RequestClaims(req); !ok {
		http.Error(rw, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(rw, req, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.Println(err)
		}
		return
	}
	defer ws.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(s.opts.TelemetryInterval)
	defer t.Stop()

	for {
		select {
		case now := <-t.C:
			for _, d := range s.store.Devices() {
				if !d.Active {
					continue
				}
				_ = ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := ws.WriteJSON(s.deviceSim(d.ID).Reading(now)); err != nil {
					return
				}
			}
		case <-closed:
			return
		case <-s.stop:
			return
		}
	}
}
