package formatter

import (
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/siri"
)

// BuildXML serializes a SIRI response to XML
func (rb *responseBuilder) BuildXML(res *siri.SiriResponse) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<Siri xmlns="http://www.siri.org.uk/siri" version="2.0">`)
	sd := res.Siri.ServiceDelivery
	b.WriteString("<ServiceDelivery>")
	writeOpt(&b, "ResponseTimestamp", sd.ResponseTimestamp)
	writeOpt(&b, "ProducerRef", sd.ProducerRef)
	for _, et := range sd.EstimatedTimetableDelivery {
		writeEstimatedTimetableXML(&b, et)
	}
	b.WriteString("</ServiceDelivery>")
	b.WriteString("</Siri>")
	return []byte(b.String())
}

func writeEstimatedTimetableXML(b *strings.Builder, et siri.EstimatedTimetable) {
	if et.Version != "" {
		b.WriteString(`<EstimatedTimetableDelivery version="` + xmlEscape(et.Version) + `">`)
	} else {
		b.WriteString("<EstimatedTimetableDelivery>")
	}
	writeOpt(b, "ResponseTimestamp", et.ResponseTimestamp)
	for _, frame := range et.EstimatedJourneyVersionFrame {
		b.WriteString("<EstimatedJourneyVersionFrame>")
		writeOpt(b, "RecordedAtTime", frame.RecordedAtTime)
		for _, journey := range frame.EstimatedVehicleJourney {
			writeJourneyXML(b, journey)
		}
		b.WriteString("</EstimatedJourneyVersionFrame>")
	}
	b.WriteString("</EstimatedTimetableDelivery>")
}

func writeJourneyXML(b *strings.Builder, journey siri.EstimatedVehicleJourney) {
	b.WriteString("<EstimatedVehicleJourney>")
	writeOpt(b, "RecordedAtTime", journey.RecordedAtTime)
	writeOpt(b, "LineRef", journey.LineRef)
	writeOpt(b, "DirectionRef", journey.DirectionRef)
	if ref := journey.FramedVehicleJourneyRef; ref.DatedVehicleJourneyRef != "" {
		b.WriteString("<FramedVehicleJourneyRef>")
		writeOpt(b, "DataFrameRef", ref.DataFrameRef)
		writeOpt(b, "DatedVehicleJourneyRef", ref.DatedVehicleJourneyRef)
		b.WriteString("</FramedVehicleJourneyRef>")
	}
	writeOpt(b, "VehicleMode", journey.VehicleMode)
	writeOpt(b, "PublishedLineName", journey.PublishedLineName)
	writeOpt(b, "OriginName", journey.OriginName)
	writeOpt(b, "DestinationName", journey.DestinationName)
	writeOpt(b, "OperatorRef", journey.OperatorRef)
	if journey.Cancellation {
		writeBool(b, "Cancellation", true)
	}
	writeBool(b, "Monitored", journey.Monitored)
	writeOpt(b, "DataSource", journey.DataSource)

	if len(journey.RecordedCalls) > 0 {
		b.WriteString("<RecordedCalls>")
		for _, call := range journey.RecordedCalls {
			b.WriteString("<RecordedCall>")
			writeCallHead(b, call.StopPointRef, call.Order, call.StopPointName, call.Cancellation)
			writeOpt(b, "AimedArrivalTime", call.AimedArrivalTime)
			writeOpt(b, "ActualArrivalTime", call.ActualArrivalTime)
			writeOpt(b, "AimedDepartureTime", call.AimedDepartureTime)
			writeOpt(b, "ActualDepartureTime", call.ActualDepartureTime)
			b.WriteString("</RecordedCall>")
		}
		b.WriteString("</RecordedCalls>")
	}
	if len(journey.EstimatedCalls) > 0 {
		b.WriteString("<EstimatedCalls>")
		for _, call := range journey.EstimatedCalls {
			b.WriteString("<EstimatedCall>")
			writeCallHead(b, call.StopPointRef, call.Order, call.StopPointName, call.Cancellation)
			writeOpt(b, "AimedArrivalTime", call.AimedArrivalTime)
			writeOpt(b, "ExpectedArrivalTime", call.ExpectedArrivalTime)
			writeOpt(b, "ArrivalStatus", call.ArrivalStatus)
			writeOpt(b, "AimedDepartureTime", call.AimedDepartureTime)
			writeOpt(b, "ExpectedDepartureTime", call.ExpectedDepartureTime)
			writeOpt(b, "DepartureStatus", call.DepartureStatus)
			b.WriteString("</EstimatedCall>")
		}
		b.WriteString("</EstimatedCalls>")
	}
	writeBool(b, "IsCompleteStopSequence", journey.IsCompleteStopSequence)
	b.WriteString("</EstimatedVehicleJourney>")
}

// writeCallHead writes the elements shared by recorded and estimated calls.
// Cancellation is always written.
func writeCallHead(b *strings.Builder, stopPointRef string, order int, name string, cancelled bool) {
	writeOpt(b, "StopPointRef", stopPointRef)
	if order > 0 {
		writeOpt(b, "Order", strconv.Itoa(order))
	}
	writeOpt(b, "StopPointName", name)
	writeBool(b, "Cancellation", cancelled)
}

// writeOpt writes <name>value</name>, or nothing when value is empty.
func writeOpt(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString("<" + name + ">")
	b.WriteString(xmlEscape(value))
	b.WriteString("</" + name + ">")
}

func writeBool(b *strings.Builder, name string, v bool) {
	writeOpt(b, name, strconv.FormatBool(v))
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}
