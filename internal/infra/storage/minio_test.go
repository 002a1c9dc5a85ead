package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t,
		"http://minio:9000/audits/submissions/abc/spend.csv",
		objectURL("minio:9000", "audits", "submissions/abc/spend.csv", false))
	assert.Equal(t,
		"https://s3.example/audits/submissions/abc/q3%20spend.csv",
		objectURL("s3.example", "audits", "submissions/abc/q3 spend.csv", true))
}
