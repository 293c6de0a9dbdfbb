package launchpad

import (
	errorsmod "cosmossdk.io/errors"

	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	"github.com/Klingon-tech/klingnet-launchpad/internal/registry"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// GetLaunch returns launch id.
func (l *Ledger) GetLaunch(id uint64) (*lptypes.Launch, error) {
	return l.store.GetLaunch(id)
}

// GetUserContribution returns addr's position in launch id.
func (l *Ledger) GetUserContribution(id uint64, addr types.Address) (*lptypes.Contribution, error) {
	c, err := l.store.GetContribution(id, addr)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errorsmod.Wrapf(lptypes.ErrContributionNotFound, "launch %d contributor %s", id, addr)
	}
	return c, nil
}

// GetLaunchStats returns the aggregate view of launch id at the current height.
func (l *Ledger) GetLaunchStats(id uint64) (*lptypes.Stats, error) {
	launch, err := l.store.GetLaunch(id)
	if err != nil {
		return nil, err
	}
	h := l.height.Height()
	return &lptypes.Stats{
		LaunchID:     id,
		TotalRaised:  launch.TotalRaised,
		TokensSold:   launch.TokensSold,
		SoftCap:      launch.SoftCap,
		HardCap:      launch.HardCap,
		StartBlock:   launch.StartBlock,
		EndBlock:     launch.EndBlock,
		IsActive:     launch.IsActive(h),
		IsFinalized:  launch.IsFinalized,
		IsSuccessful: launch.IsSuccessful,
		ProgressBps:  ProgressBps(launch.TotalRaised, launch.HardCap),
		Phase:        launch.Phase(h),
	}, nil
}

// LaunchCount returns the number of launches created so far.
func (l *Ledger) LaunchCount() (uint64, error) {
	return l.store.LastID()
}

// Launches returns up to limit launches starting at id from, in id order.
func (l *Ledger) Launches(from, limit uint64) ([]*lptypes.Launch, error) {
	last, err := l.store.LastID()
	if err != nil {
		return nil, err
	}
	if from == 0 {
		from = 1
	}
	var out []*lptypes.Launch
	for id := from; id <= last && uint64(len(out)) < limit; id++ {
		launch, err := l.store.GetLaunch(id)
		if err != nil {
			return nil, err
		}
		out = append(out, launch)
	}
	return out, nil
}

// Contributions returns every contribution to launch id.
func (l *Ledger) Contributions(id uint64) ([]*lptypes.Contribution, error) {
	if _, err := l.store.GetLaunch(id); err != nil {
		return nil, err
	}
	var out []*lptypes.Contribution
	err := l.store.ForEachContribution(id, func(c *lptypes.Contribution) error {
		out = append(out, c)
		return nil
	})
	return out, err
}

// FindContributions returns every contribution addr made, ordered by launch id.
func (l *Ledger) FindContributions(addr types.Address) ([]*lptypes.Contribution, error) {
	ids, err := l.store.LaunchIDsOf(addr)
	if err != nil {
		return nil, err
	}
	out := make([]*lptypes.Contribution, 0, len(ids))
	for _, id := range ids {
		c, err := l.store.GetContribution(id, addr)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// DeployedToken returns the token bound to launch id by the registry.
func (l *Ledger) DeployedToken(id uint64) (types.TokenID, bool) {
	e, ok := l.registry.Get(id)
	return e.Token, ok
}

// DeploymentCount returns the number of registered tokens.
func (l *Ledger) DeploymentCount() uint64 {
	return l.registry.Count()
}

// Deployments returns every registered token in launch order.
func (l *Ledger) Deployments() []registry.Entry {
	return l.registry.List()
}
