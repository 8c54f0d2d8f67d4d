// Package integration contains end-to-end tests for LogPipe.
// These tests run the full pipeline in-process over the memory sink.
package integration

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "LogPipe Integration Suite")
}
