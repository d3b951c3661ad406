package report_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/waabox/runnerstat/internal/report"
)

type fakePutter struct {
	keys         []string
	bodies       []string
	contentTypes []string
	err          error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.keys = append(f.keys, aws.ToString(in.Key))
	f.bodies = append(f.bodies, string(body))
	f.contentTypes = append(f.contentTypes, aws.ToString(in.ContentType))
	return &s3.PutObjectOutput{}, nil
}

func writeArtifact(t *testing.T, name, content string) report.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return report.Artifact{Name: name, Path: path, ContentType: "text/csv", Written: true}
}

func TestS3Publisher_UploadsUnderRunPrefix(t *testing.T) {
	fake := &fakePutter{}
	p := report.NewS3PublisherWithClient(fake, "ci-reports", "/runner-usage/", nil)
	artifacts := []report.Artifact{
		writeArtifact(t, "report.csv", "a,b\n"),
		writeArtifact(t, "summary.md", "# hi"),
	}

	uris, err := p.Publish(context.Background(), "01HZX", artifacts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantKeys := []string{"runner-usage/01HZX/report.csv", "runner-usage/01HZX/summary.md"}
	if !reflect.DeepEqual(fake.keys, wantKeys) {
		t.Errorf("expected keys %v, got %v", wantKeys, fake.keys)
	}
	if !reflect.DeepEqual(fake.bodies, []string{"a,b\n", "# hi"}) {
		t.Errorf("unexpected bodies %v", fake.bodies)
	}
	if fake.contentTypes[0] != "text/csv" {
		t.Errorf("expected content type text/csv, got '%s'", fake.contentTypes[0])
	}
	wantURIs := []string{"s3://ci-reports/runner-usage/01HZX/report.csv", "s3://ci-reports/runner-usage/01HZX/summary.md"}
	if !reflect.DeepEqual(uris, wantURIs) {
		t.Errorf("expected %v, got %v", wantURIs, uris)
	}
}

func TestS3Publisher_NoPrefix(t *testing.T) {
	fake := &fakePutter{}
	p := report.NewS3PublisherWithClient(fake, "ci-reports", "", nil)

	if _, err := p.Publish(context.Background(), "run", []report.Artifact{writeArtifact(t, "r.html", "<p>")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.keys[0] != "run/r.html" {
		t.Errorf("expected key 'run/r.html', got '%s'", fake.keys[0])
	}
}

func TestS3Publisher_UploadFailure(t *testing.T) {
	boom := errors.New("access denied")
	p := report.NewS3PublisherWithClient(&fakePutter{err: boom}, "ci-reports", "", nil)

	_, err := p.Publish(context.Background(), "run", []report.Artifact{writeArtifact(t, "r.csv", "x")})
	if !errors.Is(err, boom) {
		t.Errorf("expected upload error, got %v", err)
	}
}

func TestNewS3Publisher_RequiresBucket(t *testing.T) {
	if _, err := report.NewS3Publisher(context.Background(), report.S3Config{}, nil); err == nil {
		t.Fatal("expected error without bucket, got nil")
	}
}
