package membershiprepo

import (
	"testing"

	"github.com/federation-tools/membership-checker/internal/adapters/contracttest"
	membershiprepoport "github.com/federation-tools/membership-checker/internal/ports/out/membershiprepo"
)

func TestContract_MembershipRepo(t *testing.T) {
	contracttest.RunMembershipRepo(t, func(t *testing.T) (membershiprepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
