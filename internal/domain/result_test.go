package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestBulkOperationResult_Outcome(t *testing.T) {
	all := &BulkOperationResult{Attempted: 2, Succeeded: 2, Deleted: []string{"a", "b"}}
	if all.Outcome() != OutcomeAllSucceeded || all.Summary() != "deleted 2" {
		t.Errorf("all: %s %q", all.Outcome(), all.Summary())
	}

	partial := &BulkOperationResult{
		Attempted: 3, Succeeded: 2, Failed: 1,
		Deleted:  []string{"1", "3"},
		Failures: []Failure{{ID: "2", Op: OperationDelete, Reason: "in use"}},
	}
	if partial.Outcome() != OutcomePartial {
		t.Errorf("partial outcome = %s", partial.Outcome())
	}
	if got := partial.Summary(); got != "deleted 2, failed 1: 2: in use" {
		t.Errorf("partial summary = %q", got)
	}

	failed := &BulkOperationResult{Attempted: 1, Failed: 1, Failures: []Failure{{ID: "x", Reason: "boom"}}}
	if failed.Outcome() != OutcomeAllFailed {
		t.Errorf("failed outcome = %s", failed.Outcome())
	}
	if n := NoticeForResult("colors", failed); n.Level != NoticeError || n.Table != "colors" {
		t.Errorf("notice = %+v", n)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("wrapped: %w", &APIError{Status: 400, Message: "Title is required"}), "Title is required"},
		{&TransportError{Op: "GET", URL: "u", Err: ErrTimeout}, "the server took too long to respond"},
		{&TransportError{Op: "GET", URL: "u", Err: errors.New("refused")}, "could not reach the server"},
		{errors.New("other"), "other"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestEnvelope_Check(t *testing.T) {
	ok := &Envelope[int]{Success: true, Data: 1}
	if err := ok.Check(200); err != nil {
		t.Errorf("Check: %v", err)
	}

	bad := &Envelope[int]{Success: false}
	err := bad.Check(200)
	if !errors.Is(err, ErrApplication) {
		t.Fatalf("err = %v", err)
	}
	if err.Error() != "request was not successful" {
		t.Errorf("default message = %q", err.Error())
	}
}
