package enjin

import (
	"strings"
	"testing"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{"0x1aF350169a9ba9bC2162b0c962E1f6AE6F60ee31", true},
		{"0X1aF350169a9ba9bC2162b0c962E1f6AE6F60ee31", false},
		{"1AF350169A9BA9BC2162B0C962E1F6AE6F60EE31", true},
		{"0x1AF350169A9BA9BC2162B0C962E1F6AE6F60EE31", true},
		{"1aF350169a9ba9bC2162b0c962E1f6AE6F60ee31", false},
		{"0x1aF350169a9ba9bC2162b0c962E1f6AE6F60ee3", false},
		{"0x1aF350169a9ba9bC2162b0c962E1f6AE6F60ee311", false},
		{"0xZZF350169a9ba9bC2162b0c962E1f6AE6F60ee31", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidateAddress(tt.address); got != tt.want {
			t.Errorf("ValidateAddress(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}

func TestGeneratePassCode(t *testing.T) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

	for _, length := range []int{1, 8, 12, 32} {
		code := GeneratePassCode(length)
		if len(code) != length {
			t.Errorf("GeneratePassCode(%d) length = %d", length, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(charset, r) {
				t.Errorf("GeneratePassCode(%d) contains unexpected character %q", length, r)
			}
		}
	}

	if len(GeneratePassCode(0)) != 12 {
		t.Error("GeneratePassCode(0) should fall back to 12 characters")
	}
}

func TestIntToBoolString(t *testing.T) {
	if got := IntToBoolString(1); got != "True" {
		t.Errorf("IntToBoolString(1) = %q", got)
	}
	if got := IntToBoolString(0); got != "False" {
		t.Errorf("IntToBoolString(0) = %q", got)
	}
	if got := IntToBoolString(7); got != "False" {
		t.Errorf("IntToBoolString(7) = %q", got)
	}
}

func TestRenderTokenValues(t *testing.T) {
	inputs := []TokenValueInput{
		{ID: "30000000000000aa", Value: 3},
		{ID: "30000000000000bb", Index: "1", Value: 1},
	}
	got := renderTokenValues(inputs)
	want := `[{id:"30000000000000aa",value:3},{id:"30000000000000bb",index:1,value:1}]`
	if got != want {
		t.Errorf("renderTokenValues() = %s, want %s", got, want)
	}
}
