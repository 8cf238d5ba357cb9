//go:build integration

package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
	"github.com/eliteGoblin/focusd/nas_power/internal/infra"
	"github.com/eliteGoblin/focusd/nas_power/internal/usecase"
)

var _ = Describe("Dispatcher against a live process", func() {
	var (
		pidPath    string
		target     *exec.Cmd
		exited     chan struct{}
		pm         domain.ProcessManager
		dispatcher *usecase.Dispatcher
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		pidPath = filepath.Join(GinkgoT().TempDir(), "nas-power-manager.pid")

		target = exec.Command("sleep", "60")
		Expect(target.Start()).To(Succeed())
		exited = make(chan struct{})
		go func() {
			_ = target.Wait()
			close(exited)
		}()

		Expect(os.WriteFile(pidPath, []byte(strconv.Itoa(target.Process.Pid)+"\n"), 0644)).To(Succeed())

		pm = infra.NewProcessManager()
		dispatcher = usecase.NewDispatcher(infra.NewPIDFile(pidPath, pm), pm, nil, zap.NewNop())
	})

	AfterEach(func() {
		_ = target.Process.Signal(os.Kill)
		Eventually(exited).Should(BeClosed())
	})

	It("reports the recorded process as running", func() {
		status, err := dispatcher.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Running).To(BeTrue())
		Expect(status.Paused).To(BeFalse())
		Expect(status.PID).To(Equal(target.Process.Pid))
	})

	It("pauses and resumes the recorded process", func() {
		Expect(dispatcher.Dispatch(ctx, domain.CommandPause)).To(Succeed())
		Eventually(func() bool {
			status, err := dispatcher.Status()
			return err == nil && status.Paused
		}, "2s", "20ms").Should(BeTrue())

		Expect(dispatcher.Dispatch(ctx, domain.CommandResume)).To(Succeed())
		Eventually(func() bool {
			status, err := dispatcher.Status()
			return err == nil && status.Running && !status.Paused
		}, "2s", "20ms").Should(BeTrue())
	})

	It("stops the recorded process", func() {
		Expect(dispatcher.Dispatch(ctx, domain.CommandStop)).To(Succeed())
		Eventually(exited, "2s").Should(BeClosed())
	})

	It("treats control commands for an exited process as no-ops", func() {
		Expect(target.Process.Signal(os.Kill)).To(Succeed())
		Eventually(exited, "2s").Should(BeClosed())

		for _, cmd := range []domain.Command{domain.CommandStop, domain.CommandPause, domain.CommandResume} {
			Expect(dispatcher.Dispatch(ctx, cmd)).To(Succeed(), string(cmd))
		}

		status, err := dispatcher.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Running).To(BeFalse())
	})

	It("treats control commands without a record as no-ops", func() {
		Expect(os.Remove(pidPath)).To(Succeed())
		Expect(dispatcher.Dispatch(ctx, domain.CommandStop)).To(Succeed())
		Consistently(exited, "200ms").ShouldNot(BeClosed())
	})
})
