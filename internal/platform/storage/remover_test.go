package storage

import "testing"

func TestParseObjectURL(t *testing.T) {
	cases := []struct {
		name          string
		raw           string
		defaultBucket string
		wantBucket    string
		wantObject    string
		wantErr       bool
	}{
		{
			name:       "gs scheme",
			raw:        "gs://uploads-prod/uploads/users/u1/up1/file.pdf",
			wantBucket: "uploads-prod",
			wantObject: "uploads/users/u1/up1/file.pdf",
		},
		{
			name:       "storage.googleapis.com path form",
			raw:        "https://storage.googleapis.com/uploads-prod/uploads/users/u1/up1/file.pdf",
			wantBucket: "uploads-prod",
			wantObject: "uploads/users/u1/up1/file.pdf",
		},
		{
			name:       "bucket subdomain form",
			raw:        "https://uploads-prod.storage.googleapis.com/uploads/users/u1/up1/file.pdf",
			wantBucket: "uploads-prod",
			wantObject: "uploads/users/u1/up1/file.pdf",
		},
		{
			name:          "bare object path uses default bucket",
			raw:           "uploads/users/u1/up1/file.pdf",
			defaultBucket: "uploads-dev",
			wantBucket:    "uploads-dev",
			wantObject:    "uploads/users/u1/up1/file.pdf",
		},
		{
			name:    "empty url",
			raw:     "   ",
			wantErr: true,
		},
		{
			name:    "gs url missing object",
			raw:     "gs://bucket-only",
			wantErr: true,
		},
		{
			name:    "bare path without default bucket",
			raw:     "uploads/file.pdf",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bucket, object, err := parseObjectURL(tc.raw, tc.defaultBucket)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tc.wantBucket || object != tc.wantObject {
				t.Fatalf("expected %s/%s, got %s/%s", tc.wantBucket, tc.wantObject, bucket, object)
			}
		})
	}
}

func TestNewRemoverRequiresClient(t *testing.T) {
	if _, err := NewRemover(nil, "bucket"); err == nil {
		t.Fatal("expected error for nil client")
	}
}
