// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Box: {
	name:      string & !=""
	baseImage: string & !=""
	port:      int & >0 & <65536
}
`

type testBox struct {
	Name      string `json:"name"`
	BaseImage string `json:"baseImage"`
	Port      int    `json:"port"`
}

func TestParseAndDecode_Valid(t *testing.T) {
	t.Parallel()
	data := []byte(`
name:      "dev"
baseImage: "ubuntu:22.04"
port:      2222
`)
	result, err := ParseAndDecodeString[testBox](testSchema, data, "#Box")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Value.Name != "dev" || result.Value.Port != 2222 {
		t.Fatalf("decoded value mismatch: %+v", result.Value)
	}
}

func TestParseAndDecode_SchemaViolation(t *testing.T) {
	t.Parallel()
	data := []byte(`
name:      "dev"
baseImage: "ubuntu:22.04"
port:      0
`)
	_, err := ParseAndDecodeString[testBox](testSchema, data, "#Box", WithFilename("box.cue"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "box.cue") {
		t.Fatalf("error should carry the filename: %v", err)
	}
	if !strings.Contains(err.Error(), "port") {
		t.Fatalf("error should name the failing path: %v", err)
	}
}

func TestParseAndDecode_SyntaxError(t *testing.T) {
	t.Parallel()
	data := []byte(`name: "dev`)
	_, err := ParseAndDecodeString[testBox](testSchema, data, "#Box")
	if err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestParseAndDecode_MissingSchemaDefinition(t *testing.T) {
	t.Parallel()
	_, err := ParseAndDecodeString[testBox](testSchema, []byte(`name: "x"`), "#Nope")
	if err == nil || !strings.Contains(err.Error(), "#Nope") {
		t.Fatalf("expected schema lookup error, got %v", err)
	}
}

func TestParseAndDecode_FileSizeLimit(t *testing.T) {
	t.Parallel()
	data := []byte(`name: "dev"`)
	_, err := ParseAndDecodeString[testBox](testSchema, data, "#Box", WithMaxFileSize(4))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestCheckFileSize_DefaultLimit(t *testing.T) {
	t.Parallel()
	if err := CheckFileSize(make([]byte, 64), DefaultMaxFileSize, "small.cue"); err != nil {
		t.Fatalf("CheckFileSize under limit: %v", err)
	}
	err := CheckFileSize(make([]byte, DefaultMaxFileSize+1), DefaultMaxFileSize, "big.cue")
	if err == nil || !strings.Contains(err.Error(), "big.cue") {
		t.Fatalf("expected size error naming the file, got %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"box"}, "box"},
		{[]string{"mounts", "0", "hostPath"}, "mounts[0].hostPath"},
		{[]string{"packages", "12"}, "packages[12]"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Fatalf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
