//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/nas_power/internal/daemon"
	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
	"github.com/eliteGoblin/focusd/nas_power/internal/infra"
	"github.com/eliteGoblin/focusd/nas_power/internal/policy"
	"github.com/eliteGoblin/focusd/nas_power/internal/usecase"
	"github.com/eliteGoblin/focusd/nas_power/test/fixtures"
)

const (
	nfsLine   = "tcp        0      0 192.168.1.10:2049       192.168.1.50:812        ESTABLISHED\n"
	otherLine = "tcp        0      0 192.168.1.10:22         192.168.1.50:51234      ESTABLISHED\n"
)

var _ = Describe("Idle-suspend daemon", func() {
	var (
		dir     string
		marker  string
		probe   *fixtures.FakeProbe
		guard   *infra.PIDFile
		d       *daemon.Daemon
		cancel  context.CancelFunc
		runErrs chan error
	)

	markerExists := func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		marker = filepath.Join(dir, "suspended")

		var err error
		probe, err = fixtures.NewFakeProbe(dir)
		Expect(err).NotTo(HaveOccurred())

		matcher, err := policy.NewConnectionPolicy("192.168.1.10", 2049)
		Expect(err).NotTo(HaveOccurred())

		logger := zap.NewNop()
		monitor := usecase.NewIdleMonitor(
			50*time.Millisecond,
			infra.NewCommandProber(probe.Command()),
			matcher,
			infra.NewShellSuspender("echo SUSPEND >> "+marker, logger),
			logger,
		)
		guard = infra.NewPIDFile(filepath.Join(dir, "nas-power-manager.pid"), infra.NewProcessManager())
		d = daemon.NewDaemon(guard, monitor, logger)
	})

	start := func() {
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		runErrs = make(chan error, 1)
		go func() { runErrs <- d.Run(ctx) }()
		Eventually(d.State, "2s", "10ms").ShouldNot(Equal(domain.StateNotStarted))
	}

	AfterEach(func() {
		if cancel != nil {
			cancel()
		}
	})

	It("does not suspend while a client holds a connection", func() {
		Expect(probe.SetOutput(otherLine + nfsLine)).To(Succeed())
		start()

		Expect(guard.IsRunning()).To(BeTrue())
		Consistently(markerExists, "400ms", "50ms").Should(BeFalse())

		cancel()
		Eventually(runErrs, "2s").Should(Receive(BeNil()))
		Expect(guard.IsRunning()).To(BeFalse())
	})

	It("suspends once the last connection goes away", func() {
		Expect(probe.SetOutput(nfsLine)).To(Succeed())
		start()
		Consistently(markerExists, "200ms", "50ms").Should(BeFalse())

		Expect(probe.SetOutput(otherLine)).To(Succeed())
		Eventually(markerExists, "2s", "20ms").Should(BeTrue())

		cancel()
		Eventually(runErrs, "2s").Should(Receive(BeNil()))
	})

	It("stops and releases the guard when the probe fails", func() {
		Expect(probe.SetOutput(nfsLine)).To(Succeed())
		Expect(probe.SetExitCode(3)).To(Succeed())
		start()

		var err error
		Eventually(runErrs, "2s").Should(Receive(&err))
		var probeErr *domain.ProbeError
		Expect(errors.As(err, &probeErr)).To(BeTrue())
		Expect(probeErr.ExitCode).To(Equal(3))

		Expect(d.State()).To(Equal(domain.StateTerminated))
		Expect(guard.IsRunning()).To(BeFalse())
		Expect(markerExists()).To(BeFalse())
	})
})
