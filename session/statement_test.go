package session

import (
	"testing"
)

func TestParamValues(t *testing.T) {
	type filter struct {
		Status string
		Limit  int
	}

	tests := []struct {
		name   string
		stmt   Statement
		params any
		want   []any
	}{
		{
			name:   "nil params",
			stmt:   Statement{ID: "S"},
			params: nil,
			want:   nil,
		},
		{
			name:   "ordered slice passes through",
			stmt:   Statement{ID: "S"},
			params: []any{1, "a", nil},
			want:   []any{1, "a", nil},
		},
		{
			name:   "map ordered by param names",
			stmt:   Statement{ID: "S", ParamNames: []string{"b", "a"}},
			params: map[string]any{"a": 1, "b": 2},
			want:   []any{2, 1},
		},
		{
			name:   "missing map key becomes nil marker",
			stmt:   Statement{ID: "S", ParamNames: []string{"a", "missing"}},
			params: map[string]any{"a": 1},
			want:   []any{1, nil},
		},
		{
			name:   "struct fields by name",
			stmt:   Statement{ID: "S", ParamNames: []string{"Status", "Limit"}},
			params: filter{Status: "open", Limit: 5},
			want:   []any{"open", 5},
		},
		{
			name:   "struct pointer fields by name",
			stmt:   Statement{ID: "S", ParamNames: []string{"Limit"}},
			params: &filter{Limit: 9},
			want:   []any{9},
		},
		{
			name:   "unknown struct field becomes nil marker",
			stmt:   Statement{ID: "S", ParamNames: []string{"Nope"}},
			params: filter{Status: "open"},
			want:   []any{nil},
		},
		{
			name:   "whole object without param names",
			stmt:   Statement{ID: "S"},
			params: 42,
			want:   []any{42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParamValues(tt.stmt, tt.params)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d values, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("value[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStatementKind_String(t *testing.T) {
	tests := []struct {
		kind StatementKind
		want string
	}{
		{KindQuery, "query"},
		{KindWrite, "write"},
		{KindCall, "call"},
		{StatementKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestDefaultBounds(t *testing.T) {
	if DefaultBounds.Offset != 0 || DefaultBounds.Limit != AllRows {
		t.Errorf("unexpected default bounds %+v", DefaultBounds)
	}
}
