package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// builder collects raw rows; patterns can only be grouped once trips.txt and
// stop_times.txt have both been read, whatever their order in the zip.
type builder struct {
	g            *Index
	tripRoute    map[string]string
	tripDir      map[string]string
	tripService  map[string]string
	tripHeadsign map[string]string
	stopTimes    map[string][]stopTimeRow
}

type stopTimeRow struct {
	stop    string
	seq     uint32
	arrival int
	depart  int
}

// NewIndexFromURL downloads a GTFS zip and indexes it.
func NewIndexFromURL(ctx context.Context, url, agencyID string) (*Index, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return NewIndexFromBytes(data, agencyID)
}

// NewIndexFromZip opens a local GTFS zip file and indexes it.
func NewIndexFromZip(path, agencyID string) (*Index, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	return load(&zr.Reader, agencyID)
}

// NewIndexFromBytes indexes a GTFS zip held in memory.
func NewIndexFromBytes(data []byte, agencyID string) (*Index, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return load(zr, agencyID)
}

func load(zr *zip.Reader, agencyID string) (*Index, error) {
	b := &builder{
		g:            NewIndex(agencyID),
		tripRoute:    map[string]string{},
		tripDir:      map[string]string{},
		tripService:  map[string]string{},
		tripHeadsign: map[string]string{},
		stopTimes:    map[string][]stopTimeRow{},
	}
	for _, f := range zr.File {
		switch strings.ToLower(f.Name) {
		case "routes.txt", "trips.txt", "stops.txt", "stop_times.txt", "agency.txt":
			if err := b.consumeCSV(f); err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	}
	b.groupPatterns()
	return b.g, nil
}

func (b *builder) consumeCSV(f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	head := rec[0]
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	field := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	g := b.g
	switch strings.ToLower(f.Name) {
	case "routes.txt":
		rID, rSN, rType := idx("route_id"), idx("route_short_name"), idx("route_type")
		for _, row := range rec[1:] {
			route := Route{ShortName: field(row, rSN)}
			route.Type, _ = strconv.Atoi(field(row, rType))
			g.Routes[field(row, rID)] = route
		}
	case "trips.txt":
		rID, tID, sID, hs, dir := idx("route_id"), idx("trip_id"), idx("service_id"), idx("trip_headsign"), idx("direction_id")
		for _, row := range rec[1:] {
			trip := field(row, tID)
			if trip == "" {
				continue
			}
			b.tripRoute[trip] = field(row, rID)
			b.tripService[trip] = field(row, sID)
			b.tripHeadsign[trip] = field(row, hs)
			b.tripDir[trip] = field(row, dir)
		}
	case "stops.txt":
		sID, sN, sLat, sLon := idx("stop_id"), idx("stop_name"), idx("stop_lat"), idx("stop_lon")
		for _, row := range rec[1:] {
			lat, _ := strconv.ParseFloat(field(row, sLat), 64)
			lon, _ := strconv.ParseFloat(field(row, sLon), 64)
			g.Stops[field(row, sID)] = Stop{Name: field(row, sN), Lat: lat, Lon: lon}
		}
	case "stop_times.txt":
		tID, sID, sq := idx("trip_id"), idx("stop_id"), idx("stop_sequence")
		arrTime, depTime := idx("arrival_time"), idx("departure_time")
		if tID < 0 || sID < 0 || sq < 0 {
			return fmt.Errorf("missing trip_id, stop_id or stop_sequence column")
		}
		for _, row := range rec[1:] {
			seq, err := strconv.ParseUint(field(row, sq), 10, 32)
			if err != nil {
				return fmt.Errorf("bad stop_sequence %q: %w", field(row, sq), err)
			}
			arr, arrOK := parseGTFSTime(field(row, arrTime))
			dep, depOK := parseGTFSTime(field(row, depTime))
			switch {
			case !arrOK && depOK:
				arr = dep
			case arrOK && !depOK:
				dep = arr
			case !arrOK && !depOK:
				// untimed stop; filled by interpolation in groupPatterns
				arr, dep = -1, -1
			}
			trip := field(row, tID)
			b.stopTimes[trip] = append(b.stopTimes[trip], stopTimeRow{
				stop:    field(row, sID),
				seq:     uint32(seq),
				arrival: arr,
				depart:  dep,
			})
		}
	case "agency.txt":
		agID, agTZ, agName := idx("agency_id"), idx("agency_timezone"), idx("agency_name")
		if len(rec) > 1 {
			if g.AgencyID == "" {
				g.AgencyID = field(rec[1], agID)
			}
			g.Timezone = field(rec[1], agTZ)
			g.AgencyName = field(rec[1], agName)
		}
	}
	return nil
}

// groupPatterns sorts each trip's stop times and groups trips sharing route,
// direction and stop list into one Pattern. Trips are visited in id order so
// pattern ids are stable across loads of the same feed.
func (b *builder) groupPatterns() {
	tripIDs := make([]string, 0, len(b.stopTimes))
	for trip := range b.stopTimes {
		if _, ok := b.tripRoute[trip]; ok {
			tripIDs = append(tripIDs, trip)
		}
	}
	sort.Strings(tripIDs)

	byKey := map[string]*Pattern{}
	perRouteDir := map[string]int{}
	for _, trip := range tripIDs {
		rows := b.stopTimes[trip]
		sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
		interpolate(rows)

		stops := make([]string, len(rows))
		st := &ScheduledTrip{
			TripID:        trip,
			ServiceID:     b.tripService[trip],
			Headsign:      b.tripHeadsign[trip],
			StopSequences: make([]uint32, len(rows)),
			Arrivals:      make([]int, len(rows)),
			Departures:    make([]int, len(rows)),
		}
		for i, r := range rows {
			stops[i] = r.stop
			st.StopSequences[i] = r.seq
			st.Arrivals[i] = r.arrival
			st.Departures[i] = r.depart
		}

		routeID, dir := b.tripRoute[trip], b.tripDir[trip]
		key := routeID + "|" + dir + "|" + strings.Join(stops, ",")
		p, ok := byKey[key]
		if !ok {
			rd := routeID + ":" + dir
			perRouteDir[rd]++
			p = &Pattern{
				ID:          fmt.Sprintf("%s:%s:%02d", routeID, dir, perRouteDir[rd]),
				RouteID:     routeID,
				DirectionID: dir,
				Stops:       stops,
				Trips:       map[string]*ScheduledTrip{},
			}
			byKey[key] = p
			b.g.Patterns[p.ID] = p
		}
		p.Trips[trip] = st
		b.g.TripPattern[trip] = p.ID
	}
}

// interpolate fills untimed stops linearly between their timed neighbours.
// Leading or trailing untimed stops copy the nearest timed stop.
func interpolate(rows []stopTimeRow) {
	last := -1
	for i := range rows {
		if rows[i].arrival < 0 {
			continue
		}
		if last >= 0 && i-last > 1 {
			from, to := rows[last].depart, rows[i].arrival
			for k := last + 1; k < i; k++ {
				t := from + (to-from)*(k-last)/(i-last)
				rows[k].arrival, rows[k].depart = t, t
			}
		} else if last < 0 {
			for k := 0; k < i; k++ {
				rows[k].arrival, rows[k].depart = rows[i].arrival, rows[i].arrival
			}
		}
		last = i
	}
	if last < 0 {
		for k := range rows {
			rows[k].arrival, rows[k].depart = 0, 0
		}
		return
	}
	for k := last + 1; k < len(rows); k++ {
		rows[k].arrival, rows[k].depart = rows[last].depart, rows[last].depart
	}
}

// parseGTFSTime parses HH:MM:SS where HH may exceed 23.
func parseGTFSTime(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		v[i] = n
	}
	return v[0]*3600 + v[1]*60 + v[2], true
}
