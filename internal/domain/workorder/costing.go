package workorder

import (
	"github.com/shopspring/decimal"
)

// CostSummary is the planned-versus-actual cost rollup of a work order
type CostSummary struct {
	PlannedMaterialCost decimal.Decimal `json:"planned_material_cost"`
	PlannedLaborCost    decimal.Decimal `json:"planned_labor_cost"`
	PlannedOverheadCost decimal.Decimal `json:"planned_overhead_cost"`
	PlannedTotalCost    decimal.Decimal `json:"planned_total_cost"`
	ActualMaterialCost  decimal.Decimal `json:"actual_material_cost"`
	ActualLaborCost     decimal.Decimal `json:"actual_labor_cost"`
	ActualOverheadCost  decimal.Decimal `json:"actual_overhead_cost"`
	ActualTotalCost     decimal.Decimal `json:"actual_total_cost"`
	Variance            decimal.Decimal `json:"variance"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
}

// CostRollup computes the cost summary from the order's materials and
// operations. Material cost values net issued quantity at the averaged issue
// cost; labor and overhead value actual hours at the operation rates. Unit
// cost divides the actual total by the completed quantity when known,
// otherwise by the ordered quantity.
func (w *WorkOrder) CostRollup() CostSummary {
	material := decimal.Zero
	for i := range w.Materials {
		material = material.Add(w.Materials[i].ActualCost())
	}
	labor := decimal.Zero
	overhead := decimal.Zero
	for i := range w.Operations {
		labor = labor.Add(w.Operations[i].ActualLaborCost())
		overhead = overhead.Add(w.Operations[i].ActualOverheadCost())
	}

	plannedTotal := w.PlannedMaterialCost.Add(w.PlannedLaborCost).Add(w.PlannedOverheadCost)
	actualTotal := material.Add(labor).Add(overhead)

	divisor := w.Quantity
	if w.CompletedQty.IsPositive() {
		divisor = w.CompletedQty
	}
	unitCost := decimal.Zero
	if divisor.IsPositive() {
		unitCost = actualTotal.Div(divisor).Round(4)
	}

	return CostSummary{
		PlannedMaterialCost: w.PlannedMaterialCost,
		PlannedLaborCost:    w.PlannedLaborCost,
		PlannedOverheadCost: w.PlannedOverheadCost,
		PlannedTotalCost:    plannedTotal,
		ActualMaterialCost:  material,
		ActualLaborCost:     labor,
		ActualOverheadCost:  overhead,
		ActualTotalCost:     actualTotal,
		Variance:            actualTotal.Sub(plannedTotal),
		UnitCost:            unitCost,
	}
}
