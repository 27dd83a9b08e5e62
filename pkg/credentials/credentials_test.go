package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rewind/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "credentials-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewManager", func() {
		It("creates a manager with an override directory", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr).NotTo(BeNil())
			Expect(mgr.GetTarget()).To(Equal(filepath.Join(tmpDir, "credentials.toml")))
		})
	})

	Describe("Load", func() {
		It("returns empty credentials when no file exists", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds).NotTo(BeNil())
			Expect(creds.Auth.Secret).To(BeEmpty())
			Expect(creds.Auth.Token).To(BeEmpty())
		})

		It("loads existing credentials", func() {
			data := `version = 0

[auth]
secret = "signing-secret"
token = "payload.sig"
`
			err := os.WriteFile(filepath.Join(tmpDir, "credentials.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Auth.Secret).To(Equal("signing-secret"))
			Expect(creds.Auth.Token).To(Equal("payload.sig"))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "credentials.toml"), []byte("not valid [[["), 0o600)
			Expect(err).NotTo(HaveOccurred())

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			creds, err := mgr.Load()
			Expect(err).To(HaveOccurred())
			Expect(creds).To(BeNil())
		})
	})

	Describe("Save", func() {
		It("persists credentials to disk with restricted permissions", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			creds := &credentials.Credentials{
				Auth: credentials.AuthCredential{Secret: "signing-secret"},
			}
			err = mgr.Save(creds)
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(filepath.Join(tmpDir, "credentials.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})

		It("returns error for nil credentials", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.Save(nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SetSecret", func() {
		It("stores a new secret", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetSecret("new-secret")
			Expect(err).NotTo(HaveOccurred())

			secret, err := mgr.GetSecret()
			Expect(err).NotTo(HaveOccurred())
			Expect(secret).To(Equal("new-secret"))
		})

		It("overwrites an existing secret", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetSecret("old-secret")
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetSecret("new-secret")
			Expect(err).NotTo(HaveOccurred())

			secret, err := mgr.GetSecret()
			Expect(err).NotTo(HaveOccurred())
			Expect(secret).To(Equal("new-secret"))
		})

		It("preserves a stored token", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetToken("payload.sig")
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetSecret("signing-secret")
			Expect(err).NotTo(HaveOccurred())

			token, err := mgr.GetToken()
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("payload.sig"))
		})
	})

	Describe("GetSecret", func() {
		It("returns empty string when nothing is stored", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			secret, err := mgr.GetSecret()
			Expect(err).NotTo(HaveOccurred())
			Expect(secret).To(BeEmpty())
		})
	})

	Describe("SetToken", func() {
		It("stores and returns a token", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetToken("payload.sig")
			Expect(err).NotTo(HaveOccurred())

			token, err := mgr.GetToken()
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("payload.sig"))
		})
	})

	Describe("ClearAuth", func() {
		It("removes the stored secret and token", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(mgr.SetSecret("signing-secret")).To(Succeed())
			Expect(mgr.SetToken("payload.sig")).To(Succeed())

			err = mgr.ClearAuth()
			Expect(err).NotTo(HaveOccurred())

			secret, err := mgr.GetSecret()
			Expect(err).NotTo(HaveOccurred())
			Expect(secret).To(BeEmpty())

			token, err := mgr.GetToken()
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(BeEmpty())
		})

		It("is a no-op when nothing is stored", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(mgr.ClearAuth()).To(Succeed())
		})
	})
})
