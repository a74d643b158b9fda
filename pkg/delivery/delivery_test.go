package delivery

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/clubreport/pkg/errors"
)

func artifact(format string, data string) Artifact {
	return Artifact{
		Name:   "report-2024-03-05." + format,
		Date:   "2024-03-05",
		Format: format,
		Data:   []byte(data),
		RunID:  "run-1",
	}
}

func TestArtifactLabel(t *testing.T) {
	if got := artifact("pdf", "").Label(); got != "March 5, 2024" {
		t.Errorf("Label() = %q", got)
	}
	if got := (Artifact{Date: "yesterday"}).Label(); got != "yesterday" {
		t.Errorf("Label() of bad date = %q", got)
	}
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "out")
	d := Directory{Dir: dir}

	if err := d.Deliver(ctx, artifact("pdf", "first")); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if err := d.Deliver(ctx, artifact("pdf", "second")); err != nil {
		t.Fatalf("Deliver overwrite: %v", err)
	}

	data, err := os.ReadFile(d.Path(artifact("pdf", "")))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only the report", names)
	}
}

func TestDirectoryRejectsPaths(t *testing.T) {
	d := Directory{Dir: t.TempDir()}
	for _, name := range []string{"", "../escape.pdf", "a/b.pdf", ".hidden"} {
		a := artifact("pdf", "x")
		a.Name = name
		err := d.Deliver(context.Background(), a)
		if !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Errorf("Deliver(%q) = %v, want INVALID_PATH", name, err)
		}
	}
}

type recorder struct {
	name string
	got  []string
	err  error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Deliver(_ context.Context, a Artifact) error {
	r.got = append(r.got, a.Name)
	return r.err
}

func TestMulti(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		a, b := &recorder{name: "a"}, &recorder{name: "b"}
		if err := (Multi{a, b}).Deliver(context.Background(), artifact("pdf", "x")); err != nil {
			t.Fatal(err)
		}
		if len(a.got) != 1 || len(b.got) != 1 {
			t.Errorf("deliveries = %v, %v", a.got, b.got)
		}
	})

	t.Run("stops at first failure", func(t *testing.T) {
		a := &recorder{name: "a", err: stderrors.New("smtp down")}
		b := &recorder{name: "b"}
		err := (Multi{a, b}).Deliver(context.Background(), artifact("pdf", "x"))
		if !errors.Is(err, errors.ErrCodeDeliveryFailed) {
			t.Fatalf("err = %v, want DELIVERY_FAILED", err)
		}
		if !strings.Contains(err.Error(), "via a") {
			t.Errorf("err = %v, want destination name", err)
		}
		if len(b.got) != 0 {
			t.Errorf("b received %v after a failed", b.got)
		}
	})

	t.Run("keeps coded errors", func(t *testing.T) {
		a := &recorder{name: "a", err: errors.New(errors.ErrCodeInvalidPath, "bad name")}
		err := (Multi{a}).Deliver(context.Background(), artifact("pdf", "x"))
		if !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Errorf("err = %v, want INVALID_PATH", err)
		}
	})
}

func testMailer(t *testing.T) (*Mailer, *[]*mail.Msg) {
	t.Helper()
	m, err := NewMailer(MailConfig{
		Host:     "smtp.example.com",
		Username: "club@example.com",
		Password: "secret",
		Bcc:      []string{"a@example.com", "b@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	var sent []*mail.Msg
	m.send = func(_ context.Context, msg *mail.Msg) error {
		sent = append(sent, msg)
		return nil
	}
	return m, &sent
}

func TestMailerMessage(t *testing.T) {
	m, _ := testMailer(t)
	msg, err := m.Message(artifact("pdf", "%PDF-"))
	if err != nil {
		t.Fatal(err)
	}

	subject := msg.GetGenHeader(mail.HeaderSubject)
	if len(subject) != 1 || subject[0] != "Strava Daily Report — March 5, 2024" {
		t.Errorf("subject = %q", subject)
	}
	if bcc := msg.GetBccString(); len(bcc) != 2 {
		t.Errorf("bcc = %v", bcc)
	}
	if from := msg.GetFromString(); len(from) != 1 || !strings.Contains(from[0], "club@example.com") {
		t.Errorf("from = %v, want the username", from)
	}
	atts := msg.GetAttachments()
	if len(atts) != 1 || atts[0].Name != "report-2024-03-05.pdf" {
		t.Errorf("attachments = %v", atts)
	}
}

func TestMailerFormats(t *testing.T) {
	m, sent := testMailer(t)
	ctx := context.Background()
	if err := m.Deliver(ctx, artifact("json", "{}")); err != nil {
		t.Fatal(err)
	}
	if err := m.Deliver(ctx, artifact("pdf", "%PDF-")); err != nil {
		t.Fatal(err)
	}
	if len(*sent) != 1 {
		t.Errorf("sent %d messages, want only the pdf", len(*sent))
	}
}

func TestMailerSendFailure(t *testing.T) {
	m, _ := testMailer(t)
	m.send = func(context.Context, *mail.Msg) error { return stderrors.New("connection refused") }
	err := m.Deliver(context.Background(), artifact("pdf", "x"))
	if !errors.Is(err, errors.ErrCodeDeliveryFailed) {
		t.Errorf("err = %v, want DELIVERY_FAILED", err)
	}
}

func TestMailConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  MailConfig
		ok   bool
	}{
		{"valid", MailConfig{Host: "h", From: "a@b.c", Bcc: []string{"x@y.z"}}, true},
		{"no host", MailConfig{From: "a@b.c", Bcc: []string{"x@y.z"}}, false},
		{"no sender", MailConfig{Host: "h", Bcc: []string{"x@y.z"}}, false},
		{"bad recipient", MailConfig{Host: "h", From: "a@b.c", Bcc: []string{"nope"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok want %v", err, tt.ok)
			}
		})
	}
}

func TestSplitAddresses(t *testing.T) {
	got := SplitAddresses(" a@x.org, b@x.org;;c@x.org ,")
	want := []string{"a@x.org", "b@x.org", "c@x.org"}
	if !slices.Equal(got, want) {
		t.Errorf("SplitAddresses = %v, want %v", got, want)
	}
}

type fakeCollection struct {
	filter any
	doc    any
	upsert bool
	err    error
}

func (f *fakeCollection) ReplaceOne(_ context.Context, filter, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	f.filter, f.doc = filter, replacement
	for _, o := range opts {
		if o.Upsert != nil {
			f.upsert = *o.Upsert
		}
	}
	return &mongo.UpdateResult{UpsertedCount: 1}, f.err
}

func TestArchive(t *testing.T) {
	now := time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC)
	coll := &fakeCollection{}
	a := &Archive{coll: coll, name: "clubreport.reports", now: func() time.Time { return now }}

	if err := a.Deliver(context.Background(), artifact("pdf", "%PDF-")); err != nil {
		t.Fatal(err)
	}
	if !coll.upsert {
		t.Error("ReplaceOne without upsert")
	}
	if f, ok := coll.filter.(bson.M); !ok || f["_id"] != "report-2024-03-05.pdf" {
		t.Errorf("filter = %v", coll.filter)
	}
	rec, ok := coll.doc.(Record)
	if !ok {
		t.Fatalf("replacement is %T", coll.doc)
	}
	if rec.Size != 5 || rec.Date != "2024-03-05" || rec.RunID != "run-1" || !rec.UpdatedAt.Equal(now) {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.SHA256) != 64 {
		t.Errorf("sha256 = %q", rec.SHA256)
	}

	coll.err = stderrors.New("not primary")
	if err := a.Deliver(context.Background(), artifact("pdf", "x")); !errors.Is(err, errors.ErrCodeDeliveryFailed) {
		t.Errorf("err = %v, want DELIVERY_FAILED", err)
	}
	if a.Name() != "mongo:clubreport.reports" {
		t.Errorf("Name() = %q", a.Name())
	}
}
