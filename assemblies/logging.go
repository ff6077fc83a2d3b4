// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemblies

import (
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
)

// SetRoundLog enables or disables per-round statistics logging, creating
// the RoundLog table on first enable.  One row is added per (round,
// implicated area): support size, winner count, overlap with the previous
// round's winners, units materialized this round, and whether the random
// synapse model fell back to exact sampling.
func (bn *Brain) SetRoundLog(on bool) {
	bn.LogRounds = on
	if on && bn.RoundLog == nil {
		bn.RoundLog = &etable.Table{}
		bn.ConfigRoundLog(bn.RoundLog)
	}
}

// ConfigRoundLog configures the given table for round logging.
func (bn *Brain) ConfigRoundLog(dt *etable.Table) {
	dt.SetMetaData("name", "RoundLog")
	dt.SetMetaData("desc", "per-round per-area projection statistics")
	dt.SetMetaData("read-only", "true")
	sch := etable.Schema{
		{Name: "Round", Type: etensor.INT64},
		{Name: "Area", Type: etensor.STRING},
		{Name: "Support", Type: etensor.INT64},
		{Name: "Winners", Type: etensor.INT64},
		{Name: "PrevOverlap", Type: etensor.FLOAT64},
		{Name: "NewUnits", Type: etensor.INT64},
		{Name: "Exact", Type: etensor.INT64},
	}
	dt.SetFromSchema(sch, 0)
}

// LogRound adds one row per implicated area for the round just committed.
func (bn *Brain) LogRound(targs []*projTarget) {
	dt := bn.RoundLog
	for _, tg := range targs {
		ar := tg.ar
		row := dt.Rows
		dt.SetNumRows(row + 1)
		dt.SetCellFloat("Round", row, float64(bn.Round))
		dt.SetCellString("Area", row, ar.Nm)
		dt.SetCellFloat("Support", row, float64(ar.SupportN))
		dt.SetCellFloat("Winners", row, float64(len(ar.Winners)))
		ov := 0.0
		if nh := len(ar.SavedWinners); nh >= 2 && len(ar.Winners) > 0 {
			ov = float64(Overlap(ar.SavedWinners[nh-1], ar.SavedWinners[nh-2])) / float64(len(ar.Winners))
		}
		dt.SetCellFloat("PrevOverlap", row, ov)
		dt.SetCellFloat("NewUnits", row, float64(len(tg.ch.NewStr)))
		ex := 0.0
		if tg.ch.Fallback {
			ex = 1
		}
		dt.SetCellFloat("Exact", row, ex)
	}
}
