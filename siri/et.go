package siri

// EstimatedTimetable delivery types
type EstimatedTimetable struct {
	Version                      string                         `json:"version,omitempty"`
	ResponseTimestamp            string                         `json:"ResponseTimestamp"`
	EstimatedJourneyVersionFrame []EstimatedJourneyVersionFrame `json:"EstimatedJourneyVersionFrame"`
}

// EstimatedJourneyVersionFrame contains a frame of estimated journeys
type EstimatedJourneyVersionFrame struct {
	RecordedAtTime          string                    `json:"RecordedAtTime"`
	EstimatedVehicleJourney []EstimatedVehicleJourney `json:"EstimatedVehicleJourney"`
}

// EstimatedVehicleJourney represents a single journey with estimated times
type EstimatedVehicleJourney struct {
	RecordedAtTime          string                  `json:"RecordedAtTime"`
	LineRef                 string                  `json:"LineRef"`
	DirectionRef            string                  `json:"DirectionRef"`
	FramedVehicleJourneyRef FramedVehicleJourneyRef `json:"FramedVehicleJourneyRef"`
	VehicleMode             string                  `json:"VehicleMode,omitempty"`
	PublishedLineName       string                  `json:"PublishedLineName,omitempty"`
	OriginName              string                  `json:"OriginName,omitempty"`
	DestinationName         string                  `json:"DestinationName,omitempty"`
	Cancellation            bool                    `json:"Cancellation,omitempty"`
	Monitored               bool                    `json:"Monitored"`
	DataSource              string                  `json:"DataSource,omitempty"`
	OperatorRef             string                  `json:"OperatorRef,omitempty"`
	RecordedCalls           []RecordedCall          `json:"RecordedCalls,omitempty"`
	EstimatedCalls          []EstimatedCall         `json:"EstimatedCalls,omitempty"`
	IsCompleteStopSequence  bool                    `json:"IsCompleteStopSequence"`
}

// FramedVehicleJourneyRef uniquely identifies a vehicle journey
type FramedVehicleJourneyRef struct {
	DataFrameRef           string `json:"DataFrameRef"`
	DatedVehicleJourneyRef string `json:"DatedVehicleJourneyRef"`
}

// RecordedCall represents a stop that has already been visited
type RecordedCall struct {
	StopPointRef        string `json:"StopPointRef"`
	Order               int    `json:"Order"`
	StopPointName       string `json:"StopPointName,omitempty"`
	Cancellation        bool   `json:"Cancellation,omitempty"`
	AimedArrivalTime    string `json:"AimedArrivalTime,omitempty"`
	ActualArrivalTime   string `json:"ActualArrivalTime,omitempty"`
	AimedDepartureTime  string `json:"AimedDepartureTime,omitempty"`
	ActualDepartureTime string `json:"ActualDepartureTime,omitempty"`
}

// EstimatedCall represents a stop that has not yet been visited
type EstimatedCall struct {
	StopPointRef          string `json:"StopPointRef"`
	Order                 int    `json:"Order"`
	StopPointName         string `json:"StopPointName,omitempty"`
	Cancellation          bool   `json:"Cancellation,omitempty"`
	AimedArrivalTime      string `json:"AimedArrivalTime,omitempty"`
	ExpectedArrivalTime   string `json:"ExpectedArrivalTime,omitempty"`
	AimedDepartureTime    string `json:"AimedDepartureTime,omitempty"`
	ExpectedDepartureTime string `json:"ExpectedDepartureTime,omitempty"`
	ArrivalStatus         string `json:"ArrivalStatus,omitempty"`
	DepartureStatus       string `json:"DepartureStatus,omitempty"`
}
