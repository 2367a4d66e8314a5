package llm

import (
	"testing"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from RequestStatus
		to   RequestStatus
		want bool
	}{
		{name: "pending to processing", from: StatusPending, to: StatusProcessing, want: true},
		{name: "pending to cancelled", from: StatusPending, to: StatusCancelled, want: true},
		{name: "pending to completed skips processing", from: StatusPending, to: StatusCompleted, want: false},
		{name: "pending to failed skips processing", from: StatusPending, to: StatusFailed, want: false},
		{name: "processing to completed", from: StatusProcessing, to: StatusCompleted, want: true},
		{name: "processing to failed", from: StatusProcessing, to: StatusFailed, want: true},
		{name: "processing to cancelled", from: StatusProcessing, to: StatusCancelled, want: true},
		{name: "processing back to pending", from: StatusProcessing, to: StatusPending, want: false},
		{name: "completed is terminal", from: StatusCompleted, to: StatusCancelled, want: false},
		{name: "failed is terminal", from: StatusFailed, to: StatusProcessing, want: false},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusPending, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	terminal := []RequestStatus{StatusCompleted, StatusFailed, StatusCancelled}
	active := []RequestStatus{StatusPending, StatusProcessing}

	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestRequestTypeValid(t *testing.T) {
	for _, rt := range []RequestType{RequestTypeDocumentation, RequestTypeCodeReview, RequestTypePlanning, RequestTypeTaskAnalysis, RequestTypeGeneral} {
		if !rt.Valid() {
			t.Errorf("%s should be valid", rt)
		}
	}
	if RequestType("HAIKU").Valid() {
		t.Error("unknown type should be invalid")
	}
}
