package netlist

import (
	"encoding/json"
	"testing"
)

func TestUnionFindMerge(t *testing.T) {
	nl := New()
	r1a := PinRef{Reference: "R1", PinNumber: "1"}
	r1b := PinRef{Reference: "R1", PinNumber: "2"}
	r2a := PinRef{Reference: "R2", PinNumber: "1"}
	r2b := PinRef{Reference: "R2", PinNumber: "2"}

	nl.ConnectPins(r1b, r2a)
	nl.AddPin(r1a)
	nl.AddPin(r2b)
	nl.Finalize()

	if nl.NetCount() != 1 {
		t.Fatalf("Expected 1 net, got %d", nl.NetCount())
	}
	net := nl.Nets[0]
	if len(net.Pins) != 2 {
		t.Fatalf("Expected 2 pins, got %+v", net.Pins)
	}
	if net.Pins[0].Reference != "R1" || net.Pins[1].Reference != "R2" {
		t.Errorf("Pins not sorted: %+v", net.Pins)
	}
}

func TestNetNaming(t *testing.T) {
	nl := New()
	a := PinRef{Reference: "U1", PinNumber: "3"}
	b := PinRef{Reference: "R5", PinNumber: "1"}
	nl.ConnectPins(a, b)
	nl.Name("pin:U1:3", "CLK")
	nl.Finalize()

	if nl.NetCount() != 1 || nl.Nets[0].Name != "CLK" {
		t.Fatalf("Nets = %+v", nl.Nets)
	}
}

func TestNameSurvivesLaterMerge(t *testing.T) {
	nl := New()
	nl.AddPoint("w1")
	nl.Name("w1", "VCC")
	a := PinRef{Reference: "C1", PinNumber: "1"}
	b := PinRef{Reference: "C2", PinNumber: "1"}
	nl.AddPin(a)
	nl.AddPin(b)
	// Merge after naming: the name must follow the merged net.
	nl.Connect("pin:C1:1", "w1")
	nl.Connect("pin:C2:1", "w1")
	nl.Finalize()

	if nl.NetCount() != 1 || nl.Nets[0].Name != "VCC" {
		t.Fatalf("Nets = %+v", nl.Nets)
	}
	if len(nl.Nets[0].Pins) != 2 {
		t.Errorf("Pins = %+v", nl.Nets[0].Pins)
	}
}

func TestIsolatedPinDropped(t *testing.T) {
	nl := New()
	nl.AddPin(PinRef{Reference: "R9", PinNumber: "1"})
	a := PinRef{Reference: "R1", PinNumber: "1"}
	b := PinRef{Reference: "R2", PinNumber: "1"}
	nl.ConnectPins(a, b)
	nl.Finalize()

	if nl.NetCount() != 1 {
		t.Fatalf("Isolated pin should not form a net: %+v", nl.Nets)
	}
}

func TestSeparateNets(t *testing.T) {
	nl := New()
	nl.ConnectPins(PinRef{Reference: "R1", PinNumber: "1"}, PinRef{Reference: "R2", PinNumber: "1"})
	nl.ConnectPins(PinRef{Reference: "R3", PinNumber: "1"}, PinRef{Reference: "R4", PinNumber: "1"})
	nl.Finalize()

	if nl.NetCount() != 2 {
		t.Fatalf("Expected 2 nets, got %d", nl.NetCount())
	}
}

func TestExportJSON(t *testing.T) {
	nl := New()
	if _, err := nl.ExportJSON(); err == nil {
		t.Error("Export before Finalize should fail")
	}

	nl.ConnectPins(PinRef{Reference: "R1", PinNumber: "2"}, PinRef{Reference: "U1", PinNumber: "7"})
	nl.Name("pin:R1:2", "DATA0")
	nl.Finalize()

	data, err := nl.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Version  string `json:"version"`
		NetCount int    `json:"net_count"`
		Nets     []struct {
			Name string `json:"name"`
			Pins []struct {
				Reference string `json:"reference"`
				Pin       string `json:"pin"`
			} `json:"pins"`
		} `json:"nets"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Bad JSON: %v\n%s", err, data)
	}
	if decoded.NetCount != 1 || decoded.Nets[0].Name != "DATA0" {
		t.Errorf("Decoded %+v", decoded)
	}
	if len(decoded.Nets[0].Pins) != 2 || decoded.Nets[0].Pins[0].Pin != "2" {
		t.Errorf("Pins %+v", decoded.Nets[0].Pins)
	}
}
