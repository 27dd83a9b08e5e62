package authtoken_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rewind/pkg/authtoken"
)

var _ = Describe("AuthToken", func() {
	secret := []byte("test-secret")

	Describe("IssueToken", func() {
		It("produces a dot-separated payload and signature", func() {
			token, err := authtoken.IssueToken(secret, "alice")
			Expect(err).NotTo(HaveOccurred())

			parts := strings.Split(token, ".")
			Expect(parts).To(HaveLen(2))
			Expect(parts[0]).NotTo(BeEmpty())
			Expect(parts[1]).To(HaveLen(16))
		})

		It("stamps the issue time", func() {
			token, err := authtoken.IssueToken(secret, "alice")
			Expect(err).NotTo(HaveOccurred())

			claims, err := authtoken.ParseToken(secret, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.IssuedAt).To(BeNumerically("~", time.Now().Unix(), 5))
		})
	})

	Describe("ParseToken", func() {
		It("round-trips the user ID", func() {
			token, err := authtoken.IssueToken(secret, "alice")
			Expect(err).NotTo(HaveOccurred())

			claims, err := authtoken.ParseToken(secret, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("alice"))
		})

		It("rejects a token signed with a different secret", func() {
			token, err := authtoken.IssueToken([]byte("other-secret"), "alice")
			Expect(err).NotTo(HaveOccurred())

			_, err = authtoken.ParseToken(secret, token)
			Expect(err).To(MatchError(authtoken.ErrInvalidToken))
		})

		It("rejects a tampered payload", func() {
			token, err := authtoken.IssueToken(secret, "alice")
			Expect(err).NotTo(HaveOccurred())

			tampered := "x" + token[1:]
			_, err = authtoken.ParseToken(secret, tampered)
			Expect(err).To(MatchError(authtoken.ErrInvalidToken))
		})

		It("rejects malformed tokens", func() {
			for _, token := range []string{"", "no-dot", "a.b.c", ".onlysig"} {
				_, err := authtoken.ParseToken(secret, token)
				Expect(err).To(MatchError(authtoken.ErrInvalidToken), token)
			}
		})

		It("rejects tokens without a user ID", func() {
			token, err := authtoken.IssueToken(secret, "")
			Expect(err).NotTo(HaveOccurred())

			_, err = authtoken.ParseToken(secret, token)
			Expect(err).To(MatchError(authtoken.ErrInvalidToken))
		})
	})
})
