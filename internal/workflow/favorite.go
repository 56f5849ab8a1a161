package workflow

import (
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/saved"
)

// StartFavorite opens a session prefilled from a saved biller and walks it
// through category and provider selection. Bill favorites land on
// DetailsEntry with only the amount left to enter; load favorites stop at
// PackageSelection.
func (m *Machine) StartFavorite(sourceAccount string, f saved.Favorite) (*Session, error) {
	s, err := m.Start(f.OwnerID, sourceAccount)
	if err != nil {
		return nil, err
	}
	f.Prefill(s.draft)
	if err := s.SelectCategory(s.draft.Category); err != nil {
		return nil, err
	}
	if err := s.SelectProvider(s.draft.ProviderName); err != nil {
		return nil, err
	}
	return s, nil
}
