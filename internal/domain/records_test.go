package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserValidate(t *testing.T) {
	assert.NoError(t, (&User{Username: "asha", Role: RoleHoD}).Validate())
	assert.ErrorIs(t, (&User{Username: "a sha", Role: RoleHoD}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&User{Username: "@asha", Role: RoleHoD}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&User{Username: "asha", Role: "boss"}).Validate(), ErrValidation)
}

func TestIPRValidate(t *testing.T) {
	filed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	ok := IPRRecord{Title: "Antenna array", Kind: IPRPatent, Status: IPRDrafted}
	assert.NoError(t, ok.Validate())

	needsDate := ok
	needsDate.Status = IPRFiled
	assert.ErrorIs(t, needsDate.Validate(), ErrValidation)
	needsDate.FiledOn = &filed
	assert.NoError(t, needsDate.Validate())

	badKind := ok
	badKind.Kind = "recipe"
	assert.ErrorIs(t, badKind.Validate(), ErrValidation)
}

func TestPartnerValidate(t *testing.T) {
	assert.NoError(t, (&IndustryPartner{Name: "Acme Forge"}).Validate())
	assert.ErrorIs(t, (&IndustryPartner{}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&IndustryPartner{Name: "Acme", ContactEmail: "nobody"}).Validate(), ErrValidation)
}
