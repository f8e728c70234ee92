package maintenance

// DefaultPlan runs every step.
const DefaultPlan = "full"

// MaintenancePlan selects a subset of the steps. Steps always run in catalog
// order, whatever order a plan lists them in.
type MaintenancePlan struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	// Steps is nil for a plan that runs everything.
	Steps []string `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// GetPredefinedPlans возвращает предопределенные планы обслуживания
func GetPredefinedPlans() []*MaintenancePlan {
	return []*MaintenancePlan{
		{
			Name:        DefaultPlan,
			Description: "All steps, restore point first and system repair last",
		},
		{
			Name:        "cleanup",
			Description: "Temporary files, caches, histories and logs",
			Steps: []string{
				StepRestorePoint,
				StepTempFiles,
				StepBrowserData,
				StepRegistryCleanup,
				StepSystemDrives,
				StepPrintSpooler,
				StepDefenderHistory,
				StepFontCache,
			},
		},
		{
			Name:        "performance",
			Description: "Startup, services, power and gaming tuning",
			Steps: []string{
				StepRestorePoint,
				StepStartupPrograms,
				StepServices,
				StepPerformance,
				StepCPUPower,
				StepGaming,
				StepSSD,
			},
		},
		{
			Name:        "network",
			Description: "TCP tuning",
			Steps: []string{
				StepRestorePoint,
				StepNetwork,
			},
		},
		{
			Name:        "repair",
			Description: "Windows Update reset, sfc, DISM, chkdsk and network stack reset",
			Steps: []string{
				StepRestorePoint,
				StepWindowsUpdate,
				StepSystemRepair,
			},
		},
	}
}

// GetPlanByName находит план по имени
func GetPlanByName(name string) *MaintenancePlan {
	for _, plan := range GetPredefinedPlans() {
		if plan.Name == name {
			return plan
		}
	}
	return nil
}

// ListPlanNames возвращает список имен доступных планов
func ListPlanNames() []string {
	plans := GetPredefinedPlans()
	names := make([]string, len(plans))
	for i, plan := range plans {
		names[i] = plan.Name
	}
	return names
}

// Includes reports whether the plan runs step id.
func (p *MaintenancePlan) Includes(id string) bool {
	if p.Steps == nil {
		return true
	}
	for _, s := range p.Steps {
		if s == id {
			return true
		}
	}
	return false
}

// Select filters tasks down to the plan, keeping their order.
func (p *MaintenancePlan) Select(tasks []Task) []Task {
	selected := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if p.Includes(t.Name()) {
			selected = append(selected, t)
		}
	}
	return selected
}
