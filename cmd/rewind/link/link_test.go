package linkcmder_test

import (
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	linkcmder "github.com/papercomputeco/rewind/cmd/rewind/link"
	"github.com/papercomputeco/rewind/pkg/dotdir"
)

func newTestCmd() *cobra.Command {
	cmd := linkcmder.NewLinkCmd()
	cmd.PersistentFlags().String("config-dir", "", "Override path to .rewind/ config directory")
	return cmd
}

var _ = Describe("Link Command", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "link-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds the directory to the given project", func() {
		cmd := newTestCmd()
		cmd.SetArgs([]string{"my-app", "--config-dir", tmpDir})

		Expect(cmd.Execute()).To(Succeed())

		state, err := dotdir.NewManager().LoadProjectState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).NotTo(BeNil())
		Expect(state.ProjectID).To(Equal("my-app"))
		Expect(state.LinkedAt).NotTo(BeEmpty())
	})

	It("generates a project ID with --new", func() {
		cmd := newTestCmd()
		cmd.SetArgs([]string{"--new", "--config-dir", tmpDir})

		Expect(cmd.Execute()).To(Succeed())

		state, err := dotdir.NewManager().LoadProjectState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).NotTo(BeNil())

		_, err = uuid.Parse(state.ProjectID)
		Expect(err).NotTo(HaveOccurred())
	})

	It("clears an existing binding", func() {
		state := &dotdir.ProjectState{ProjectID: "my-app"}
		Expect(dotdir.NewManager().SaveProject(state, tmpDir)).To(Succeed())

		cmd := newTestCmd()
		cmd.SetArgs([]string{"--clear", "--config-dir", tmpDir})

		Expect(cmd.Execute()).To(Succeed())

		loaded, err := dotdir.NewManager().LoadProjectState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(BeNil())
	})

	It("requires a project ID without --new or --clear", func() {
		cmd := newTestCmd()
		cmd.SetArgs([]string{"--config-dir", tmpDir})

		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("project-id argument required"))
	})
})
