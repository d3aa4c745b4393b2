package memmodel

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should accept the default configuration", func() {
		Expect(DefaultConfig().Validate()).To(Succeed())
	})

	It("should overlay a file on the defaults", func() {
		path := filepath.Join(dir, "model.yaml")
		Expect(os.WriteFile(path, []byte(
			"num_cores: 8\nuse_host_cache: false\nbus_bandwidth_gbps: 15.754\n",
		), 0644)).To(Succeed())

		c, err := LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.NumCores).To(Equal(8))
		Expect(c.UseHostCache).To(BeFalse())
		Expect(c.BusBandwidth).To(Equal(15.754))
		Expect(c.LineSize).To(Equal(uint64(64)))
	})

	It("should reject unknown keys", func() {
		path := filepath.Join(dir, "model.yaml")
		Expect(os.WriteFile(path, []byte("num_gpus: 8\n"), 0644)).To(Succeed())

		_, err := LoadConfig(path)

		Expect(err).To(MatchError(ContainSubstring("num_gpus")))
	})

	It("should report every invalid value", func() {
		c := DefaultConfig()
		c.LineSize = 48
		c.NumCores = 0

		err := c.Validate()

		Expect(err).To(MatchError(ContainSubstring("line_size 48")))
		Expect(err).To(MatchError(ContainSubstring("num_cores must be > 0")))
	})

	It("should reject an unknown bus version", func() {
		c := DefaultConfig()
		c.BusVersion = 9
		c.BusWidth = -1

		err := c.Validate()

		Expect(err).To(MatchError(ContainSubstring("bus_version 9")))
		Expect(err).To(MatchError(ContainSubstring("bus_width must be >= 0")))
	})

	It("should round trip through a file", func() {
		path := filepath.Join(dir, "model.yaml")
		c := DefaultConfig()
		c.UseDetailedModel = true

		Expect(c.SaveConfig(path)).To(Succeed())

		loaded, err := LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
	})

	It("should fail on a missing file", func() {
		_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))

		Expect(err).To(MatchError(ContainSubstring("failed to open config file")))
	})
})
