package domain

import (
	"testing"

	"countryview/testutil"
)

// The domain layer must not depend on any implementation package.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "pkg/domain is the shared vocabulary")
}
