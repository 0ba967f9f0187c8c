package validation

import (
	"testing"

	"github.com/vnykmshr/batchflow/pkg/common/errors"
)

type poolSettings struct {
	Workers int    `mapstructure:"workers" validate:"gte=0"`
	Format  string `mapstructure:"format" validate:"oneof=json console"`
}

type settings struct {
	Name string       `mapstructure:"name" validate:"required"`
	Pool poolSettings `mapstructure:"pool"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name      string
		in        settings
		wantField string
	}{
		{"valid", settings{Name: "job", Pool: poolSettings{Workers: 2, Format: "json"}}, ""},
		{"missing name", settings{Pool: poolSettings{Format: "json"}}, "name"},
		{"negative workers", settings{Name: "job", Pool: poolSettings{Workers: -1, Format: "json"}}, "pool.workers"},
		{"bad format", settings{Name: "job", Pool: poolSettings{Format: "xml"}}, "pool.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct("config", tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			valErr, ok := err.(*errors.ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if valErr.Module != "config" {
				t.Errorf("Module = %q, want config", valErr.Module)
			}
			if valErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", valErr.Field, tt.wantField)
			}
		})
	}
}
