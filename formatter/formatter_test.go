package formatter

import (
	"encoding/json"
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/siri"
)

func sampleET() siri.EstimatedTimetable {
	journey := func(line, dir string, stops ...string) siri.EstimatedVehicleJourney {
		j := siri.EstimatedVehicleJourney{
			LineRef:      "SOFIA:Line:" + line,
			DirectionRef: dir,
			FramedVehicleJourneyRef: siri.FramedVehicleJourneyRef{
				DataFrameRef:           "2026-10-19",
				DatedVehicleJourneyRef: "SOFIA:ServiceJourney:" + line + dir,
			},
			Monitored: true,
		}
		j.RecordedCalls = []siri.RecordedCall{{StopPointRef: "SOFIA:Quay:" + stops[0], Order: 1}}
		for i, s := range stops[1:] {
			j.EstimatedCalls = append(j.EstimatedCalls, siri.EstimatedCall{
				StopPointRef:  "SOFIA:Quay:" + s,
				Order:         i + 2,
				ArrivalStatus: "onTime",
			})
		}
		return j
	}
	return siri.EstimatedTimetable{
		Version:           "2.0",
		ResponseTimestamp: "2026-10-19T08:06:00Z",
		EstimatedJourneyVersionFrame: []siri.EstimatedJourneyVersionFrame{{
			RecordedAtTime: "2026-10-19T08:05:30Z",
			EstimatedVehicleJourney: []siri.EstimatedVehicleJourney{
				journey("TM5", "0", "S1", "S2"),
				journey("TM5", "1", "S2", "S1"),
				journey("A94", "0", "S3", "S4"),
			},
		}},
	}
}

func refs(et siri.EstimatedTimetable) []string {
	var out []string
	for _, f := range et.EstimatedJourneyVersionFrame {
		for _, j := range f.EstimatedVehicleJourney {
			out = append(out, j.FramedVehicleJourneyRef.DatedVehicleJourneyRef)
		}
	}
	return out
}

func TestFilterEstimatedTimetable(t *testing.T) {
	et := sampleET()
	tests := []struct {
		name                        string
		monitoring, line, direction string
		want                        []string
	}{
		{"no filter", "", "", "", []string{"SOFIA:ServiceJourney:TM50", "SOFIA:ServiceJourney:TM51", "SOFIA:ServiceJourney:A940"}},
		{"line substring ignores case", "", "tm5", "", []string{"SOFIA:ServiceJourney:TM50", "SOFIA:ServiceJourney:TM51"}},
		{"direction", "", "", "1", []string{"SOFIA:ServiceJourney:TM51"}},
		{"recorded stop", "quay:s3", "", "", []string{"SOFIA:ServiceJourney:A940"}},
		{"estimated stop", " S2 ", "", "0", []string{"SOFIA:ServiceJourney:TM50"}},
		{"no match", "", "X99", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterEstimatedTimetable(et, tt.monitoring, tt.line, tt.direction)
			assert.Equal(t, tt.want, refs(got))
			assert.Equal(t, et.ResponseTimestamp, got.ResponseTimestamp)
		})
	}
	assert.Len(t, refs(et), 3, "the input is left untouched")
}

func TestBuildJSON(t *testing.T) {
	res := WrapEstimatedTimetableResponse(sampleET(), "")
	data, err := NewResponseBuilder().BuildJSON(res)
	require.NoError(t, err)

	var decoded siri.SiriResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	sd := decoded.Siri.ServiceDelivery
	assert.Equal(t, "UNKNOWN", sd.ProducerRef)
	assert.Equal(t, "2026-10-19T08:06:00Z", sd.ResponseTimestamp)
	require.Len(t, sd.EstimatedTimetableDelivery, 1)
	assert.Len(t, refs(sd.EstimatedTimetableDelivery[0]), 3)
}

func TestBuildXML(t *testing.T) {
	et := sampleET()
	et.EstimatedJourneyVersionFrame[0].EstimatedVehicleJourney[0].OriginName = `Lions "Bridge" & Co`
	data := NewResponseBuilder().BuildXML(WrapEstimatedTimetableResponse(et, "SOFIA"))

	var doc struct {
		XMLName         xml.Name `xml:"Siri"`
		ServiceDelivery struct {
			ProducerRef string `xml:"ProducerRef"`
			Delivery    struct {
				Version string `xml:"version,attr"`
				Frame   struct {
					Journeys []struct {
						LineRef    string `xml:"LineRef"`
						OriginName string `xml:"OriginName"`
						Monitored  bool   `xml:"Monitored"`
						Estimated  []struct {
							StopPointRef  string `xml:"StopPointRef"`
							Order         int    `xml:"Order"`
							Cancellation  bool   `xml:"Cancellation"`
							ArrivalStatus string `xml:"ArrivalStatus"`
						} `xml:"EstimatedCalls>EstimatedCall"`
					} `xml:"EstimatedVehicleJourney"`
				} `xml:"EstimatedJourneyVersionFrame"`
			} `xml:"EstimatedTimetableDelivery"`
		} `xml:"ServiceDelivery"`
	}
	require.NoError(t, xml.Unmarshal(data, &doc), string(data))

	sd := doc.ServiceDelivery
	assert.Equal(t, "SOFIA", sd.ProducerRef)
	assert.Equal(t, "2.0", sd.Delivery.Version)
	require.Len(t, sd.Delivery.Frame.Journeys, 3)
	j := sd.Delivery.Frame.Journeys[0]
	assert.Equal(t, "SOFIA:Line:TM5", j.LineRef)
	assert.Equal(t, `Lions "Bridge" & Co`, j.OriginName)
	assert.True(t, j.Monitored)
	require.Len(t, j.Estimated, 1)
	assert.Equal(t, "SOFIA:Quay:S2", j.Estimated[0].StopPointRef)
	assert.Equal(t, 2, j.Estimated[0].Order)
	assert.False(t, j.Estimated[0].Cancellation)
	assert.Equal(t, "onTime", j.Estimated[0].ArrivalStatus)
}
