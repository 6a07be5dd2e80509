package mython

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

type programCase struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Want   string `yaml:"want"`
}

type programFixture struct {
	Cases []programCase `yaml:"cases"`
}

func TestProgramFixtures(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "programs.yaml"))
	if err != nil {
		t.Fatalf("read fixtures: %v", err)
	}

	var fixture programFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		t.Fatalf("decode fixtures: %v", err)
	}
	if len(fixture.Cases) == 0 {
		t.Fatalf("fixture file holds no cases")
	}

	for _, tc := range fixture.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			program, err := Compile(tc.Source)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}

			var ctx BufferedContext
			result, err := program.Run(make(Closure), &ctx)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if !result.IsNone() {
				t.Fatalf("program result is %v, want None", result.Kind())
			}
			if got := ctx.String(); got != tc.Want {
				t.Fatalf("output mismatch:\n got %q\nwant %q", got, tc.Want)
			}
		})
	}
}
