package workerproc

import (
	"context"
	"errors"
	"testing"

	"referral-backend/internal/queue"
)

type fakeProcessor struct {
	got []queue.Message
	err error
}

func (f *fakeProcessor) ProcessJobMessage(ctx context.Context, msg queue.Message) error {
	f.got = append(f.got, msg)
	return f.err
}

func encode(t *testing.T, msg queue.Message) string {
	t.Helper()
	raw, err := queue.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(raw)
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     bool
		unrecovered bool
	}{
		{name: "valid", body: `{"organizationId":"org-1","jobId":"job-1","requestId":"r","version":1}`},
		{name: "empty", body: "  ", wantErr: true, unrecovered: true},
		{name: "bad json", body: "{bad-json", wantErr: true, unrecovered: true},
		{name: "missing job", body: `{"organizationId":"org-1"}`, wantErr: true, unrecovered: true},
		{name: "missing org", body: `{"jobId":"job-1"}`, wantErr: true, unrecovered: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, meta, err := ParseMessage(tt.body)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if Unrecoverable(err) != tt.unrecovered {
				t.Fatalf("Unrecoverable = %v, want %v", Unrecoverable(err), tt.unrecovered)
			}
			if meta.BodyLen != len(tt.body) {
				t.Fatalf("expected body len %d, got %d", len(tt.body), meta.BodyLen)
			}
		})
	}
}

func TestHandleMessageDispatches(t *testing.T) {
	proc := &fakeProcessor{}
	body := encode(t, queue.Message{OrganizationID: "org-1", JobID: "job-1", Status: "SUBMITTED", RequestID: "req-1"})

	msg, err := HandleMessage(context.Background(), proc, body)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if msg.JobID != "job-1" || len(proc.got) != 1 || proc.got[0].Status != "SUBMITTED" {
		t.Fatalf("unexpected dispatch: %+v", proc.got)
	}
}

func TestHandleMessageWrapsProcessError(t *testing.T) {
	boom := errors.New("boom")
	proc := &fakeProcessor{err: boom}
	body := encode(t, queue.Message{OrganizationID: "org-1", JobID: "job-2", RequestID: "req-2"})

	_, err := HandleMessage(context.Background(), proc, body)
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if procErr.JobID != "job-2" || !errors.Is(err, boom) {
		t.Fatalf("unexpected process error: %+v", procErr)
	}
	if Unrecoverable(err) {
		t.Fatalf("process errors are retryable")
	}
}

func TestHandleMessageWithoutProcessor(t *testing.T) {
	if _, err := HandleMessage(context.Background(), nil, "{}"); err == nil {
		t.Fatalf("expected error")
	}
}
