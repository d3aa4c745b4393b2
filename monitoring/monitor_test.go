package monitoring

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/nicmem/sim"
)

type sampleComponent struct {
	name     string
	InFlight int
}

func (c *sampleComponent) Name() string {
	return c.name
}

func (c *sampleComponent) Status() string {
	return fmt.Sprintf("%s: in flight %d", c.name, c.InFlight)
}

var _ = Describe("Monitor", func() {
	var (
		engine *sim.SerialEngine
		m      *Monitor
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		m.Router().ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterComponent(&sampleComponent{name: "Cache", InFlight: 3})
		m.RegisterComponent(&sampleComponent{name: "Memory"})
	})

	It("should list components", func() {
		rec := get("/api/list_components")

		var names []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())
		Expect(names).To(Equal([]string{"Cache", "Memory"}))
	})

	It("should report the current time", func() {
		rec := get("/api/now")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"now":0,"now_ns":0}`))
	})

	It("should report the status of a component", func() {
		rec := get("/api/status/Cache")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("Cache: in flight 3\n"))
	})

	It("should report the status of every component", func() {
		rec := get("/api/status")

		Expect(rec.Body.String()).
			To(Equal("Cache: in flight 3\nMemory: in flight 0\n"))
	})

	It("should return 404 for an unknown component", func() {
		Expect(get("/api/status/DRAM").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/component/DRAM").Code).To(Equal(http.StatusNotFound))
	})

	It("should serialize a component", func() {
		rec := get("/api/component/Cache")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should reject a malformed field request", func() {
		Expect(get("/api/field/notjson").Code).To(Equal(http.StatusBadRequest))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("Works", 10)
		bar.IncrementInProgress(4)
		bar.MoveInProgressToFinished(3)

		rec := get("/api/progress")
		Expect(rec.Body.String()).To(ContainSubstring(`"name":"Works"`))
		Expect(rec.Body.String()).To(ContainSubstring(`"finished":3`))
		Expect(bar.Done()).To(BeFalse())

		m.CompleteProgressBar(bar)
		Expect(get("/api/progress").Body.String()).To(Equal("[]"))
	})

	It("should report resource usage", func() {
		rec := get("/api/resource")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("memory_size"))
	})

	It("should collect a profile", func() {
		m.profileTime = 10 * time.Millisecond

		Expect(get("/api/profile").Code).To(Equal(http.StatusOK))
	})

	It("should not use privileged ports", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should serve over HTTP", func() {
		port, err := m.StartServer()
		Expect(err).NotTo(HaveOccurred())

		defer func() { Expect(m.StopServer()).To(Succeed()) }()

		rsp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/status", port))
		Expect(err).NotTo(HaveOccurred())

		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("Memory: in flight 0"))
	})
})
