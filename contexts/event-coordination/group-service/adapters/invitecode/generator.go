package invitecode

import (
	gonanoid "github.com/matoous/go-nanoid/v2"

	"meetfix/contexts/event-coordination/group-service/domain/entities"
)

// Generator draws invite codes from a CSPRNG over the group invite alphabet.
type Generator struct{}

func (Generator) NewInviteCode() (string, error) {
	return gonanoid.Generate(entities.InviteCodeAlphabet, entities.InviteCodeLength)
}
