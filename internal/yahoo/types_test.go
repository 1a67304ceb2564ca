package yahoo

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFlexBool(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{`1`, true, false},
		{`"1"`, true, false},
		{`true`, true, false},
		{`"true"`, true, false},
		{`0`, false, false},
		{`"0"`, false, false},
		{`false`, false, false},
		{`""`, false, false},
		{`null`, false, false},
		{`"-"`, false, false},
		{`"yes"`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var b FlexBool
			err := json.Unmarshal([]byte(tt.input), &b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unmarshal %s: err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && b.Bool() != tt.want {
				t.Errorf("unmarshal %s = %v, want %v", tt.input, b.Bool(), tt.want)
			}
		})
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{`5`, 5, false},
		{`"5"`, 5, false},
		{`5.0`, 5, false},
		{`"12.0"`, 12, false},
		{`""`, 0, false},
		{`"-"`, 0, false},
		{`null`, 0, false},
		{`"abc"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var n FlexInt
			err := json.Unmarshal([]byte(tt.input), &n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unmarshal %s: err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && n.Int() != tt.want {
				t.Errorf("unmarshal %s = %d, want %d", tt.input, n.Int(), tt.want)
			}
		})
	}
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		input     string
		want      float64
		wantValid bool
	}{
		{`1.5`, 1.5, true},
		{`"1.5"`, 1.5, true},
		{`"0"`, 0, true},
		{`"-"`, 0, false},
		{`""`, 0, false},
		{`null`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f FlexFloat
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			if f.Valid != tt.wantValid || f.Float64 != tt.want {
				t.Errorf("unmarshal %s = {%v %v}, want {%v %v}", tt.input, f.Float64, f.Valid, tt.want, tt.wantValid)
			}
		})
	}
}

func TestCollectionArrayForm(t *testing.T) {
	var c collection[positionEntry]
	if err := json.Unmarshal([]byte(`[{"position":"C"},{"position":"1B"}]`), &c); err != nil {
		t.Fatalf("unmarshal array form: %v", err)
	}
	want := []positionEntry{{Position: "C"}, {Position: "1B"}}
	if !reflect.DeepEqual(c.Items, want) {
		t.Errorf("array form = %v, want %v", c.Items, want)
	}
}

func TestCollectionNumberedForm(t *testing.T) {
	payload := `{"0":{"position":"SS"},"1":{"position":"OF"},"count":2}`
	var c collection[positionEntry]
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		t.Fatalf("unmarshal numbered form: %v", err)
	}
	want := []positionEntry{{Position: "SS"}, {Position: "OF"}}
	if !reflect.DeepEqual(c.Items, want) {
		t.Errorf("numbered form = %v, want %v", c.Items, want)
	}
}

func TestCollectionStopsAtGap(t *testing.T) {
	// The numbered form ends at the first missing index, trailing keys like
	// count are ignored.
	payload := `{"0":{"position":"SP"},"2":{"position":"RP"},"count":2}`
	var c collection[positionEntry]
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].Position != "SP" {
		t.Errorf("expected only index 0, got %v", c.Items)
	}
}

func TestCollectionNull(t *testing.T) {
	var c collection[positionEntry]
	if err := json.Unmarshal([]byte(`null`), &c); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if c.Items != nil {
		t.Errorf("null should produce no items, got %v", c.Items)
	}
}
