package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlansReferenceKnownSteps(t *testing.T) {
	for _, plan := range GetPredefinedPlans() {
		assert.NoError(t, ValidateStepIDs(plan.Steps), plan.Name)
	}
	assert.Equal(t, []string{"full", "cleanup", "performance", "network", "repair"}, ListPlanNames())
}

func TestPlanSelectNeverReorders(t *testing.T) {
	te := newTestEnv(t)
	tasks := CreateDefaultTasks(te.env)
	position := make(map[string]int)
	for i, id := range StepIDs() {
		position[id] = i
	}

	for _, plan := range GetPredefinedPlans() {
		selected := plan.Select(tasks)
		require.NotEmpty(t, selected, plan.Name)
		assert.Equal(t, StepRestorePoint, selected[0].Name(), plan.Name)
		for i := 1; i < len(selected); i++ {
			assert.Less(t, position[selected[i-1].Name()], position[selected[i].Name()], plan.Name)
		}
	}
}

func TestFullPlanRunsEverything(t *testing.T) {
	te := newTestEnv(t)
	plan := GetPlanByName(DefaultPlan)
	require.NotNil(t, plan)
	assert.Len(t, plan.Select(CreateDefaultTasks(te.env)), len(Catalog()))
	assert.Nil(t, GetPlanByName("nightly"))
}
