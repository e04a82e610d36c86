package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	old := buildVersion
	buildVersion = "v0.3.1"
	t.Cleanup(func() { buildVersion = old })

	var buf bytes.Buffer
	PrintBuildData(&buf)

	assert.Equal(t, "Build version: v0.3.1\nBuild date: N/A\nBuild commit: N/A\n", buf.String())
}
