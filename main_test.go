package main

import (
	"reflect"
	"testing"
)

func TestParseViolationIds(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "json array", raw: "[3,1,2]", want: []int64{3, 1, 2}},
		{name: "json array with spaces", raw: " [10, 20] ", want: []int64{10, 20}},
		{name: "empty json array", raw: "[]", want: []int64{}},
		{name: "comma separated", raw: "4,5,6", want: []int64{4, 5, 6}},
		{name: "comma separated with spaces", raw: " 7 , 8 ", want: []int64{7, 8}},
		{name: "empty string", raw: "", want: []int64{}},
		{name: "malformed json", raw: "[1,", wantErr: true},
		{name: "non numeric entry", raw: "1,x", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseViolationIds(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error; got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseViolationIds(%q): %v", tc.raw, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseViolationIds(%q) = %v; want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" https://a.example , https://b.example ,, ")
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitAndTrim = %v; want %v", got, want)
	}
	if out := splitAndTrim("   "); out != nil {
		t.Fatalf("expected nil for blank input; got %v", out)
	}
}
