package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rewind/pkg/dotdir"
)

var _ = Describe("dotdir.Manager project binding", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadProjectState", func() {
		It("returns nil when no project file exists", func() {
			state, err := m.LoadProjectState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("loads a valid project binding", func() {
			// Write a project file manually
			data := `{"project_id":"my-project","repo_name":"rewind","linked_at":"2026-03-01T10:00:00Z"}`
			err := os.WriteFile(filepath.Join(tmpDir, "project.json"), []byte(data), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadProjectState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).NotTo(BeNil())
			Expect(state.ProjectID).To(Equal("my-project"))
			Expect(state.RepoName).To(Equal("rewind"))
			Expect(state.LinkedAt).To(Equal("2026-03-01T10:00:00Z"))
		})

		It("returns error for invalid JSON", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "project.json"), []byte("not json"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadProjectState(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})

	Describe("SaveProject", func() {
		It("persists the binding to disk", func() {
			state := &dotdir.ProjectState{
				ProjectID: "my-project",
				RepoName:  "rewind",
			}

			err := m.SaveProject(state, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			// Verify the file exists
			_, err = os.Stat(filepath.Join(tmpDir, "project.json"))
			Expect(err).NotTo(HaveOccurred())

			// Load it back and verify
			loaded, err := m.LoadProjectState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ProjectID).To(Equal("my-project"))
			Expect(loaded.RepoName).To(Equal("rewind"))
		})

		It("returns error for nil state", func() {
			err := m.SaveProject(nil, tmpDir)
			Expect(err).To(HaveOccurred())
		})

		It("returns error for a binding without a project id", func() {
			err := m.SaveProject(&dotdir.ProjectState{RepoName: "rewind"}, tmpDir)
			Expect(err).To(HaveOccurred())
		})

		It("overwrites an existing binding", func() {
			first := &dotdir.ProjectState{ProjectID: "first"}
			second := &dotdir.ProjectState{ProjectID: "second"}

			err := m.SaveProject(first, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = m.SaveProject(second, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := m.LoadProjectState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ProjectID).To(Equal("second"))
		})
	})

	Describe("ClearProject", func() {
		It("removes the project file", func() {
			state := &dotdir.ProjectState{ProjectID: "to-clear"}
			err := m.SaveProject(state, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = m.ClearProject(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			// Verify it's gone
			loaded, err := m.LoadProjectState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("succeeds when no project file exists", func() {
			err := m.ClearProject(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("round-trip", func() {
		It("saves and loads the binding correctly", func() {
			state := &dotdir.ProjectState{
				ProjectID: "my-project",
				RepoName:  "rewind",
				LinkedAt:  "2026-03-01T10:00:00Z",
			}

			err := m.SaveProject(state, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := m.LoadProjectState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(state))
		})
	})
})
