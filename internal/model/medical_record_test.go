package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordStatus(t *testing.T) {
	for _, s := range []string{"pending", "accepted", "rejected"} {
		st, err := ParseRecordStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(st))
	}

	for _, s := range []string{"", "Accepted", "approved", " pending"} {
		_, err := ParseRecordStatus(s)
		assert.Error(t, err, s)
	}
}

func TestRecordStatusTransitions(t *testing.T) {
	assert.False(t, RecordStatusPending.IsTerminal())
	assert.True(t, RecordStatusAccepted.IsTerminal())
	assert.True(t, RecordStatusRejected.IsTerminal())
}

func TestMedicationsValueAndScan(t *testing.T) {
	var nilMeds Medications
	v, err := nilMeds.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var meds Medications
	require.NoError(t, meds.Scan([]byte(`[{"name":"Aspirin","dosage":"500mg","quantity":20,"instructions":"Take 2 tablets daily"}]`)))
	require.Len(t, meds, 1)
	assert.Equal(t, "Aspirin", meds[0].Name)
	assert.Equal(t, 20, meds[0].Quantity)

	require.NoError(t, meds.Scan(nil))
	assert.NotNil(t, meds)
	assert.Empty(t, meds)

	assert.Error(t, meds.Scan(42))
}

func TestCreateRecordRequestNormalize(t *testing.T) {
	blank := "   "
	notes := " follow up in one week "
	req := CreateRecordRequest{
		Diagnosis:           "  flu ",
		SpecialInstructions: &blank,
		Notes:               &notes,
		Medications:         []Medication{{Name: " Aspirin ", Dosage: "500mg ", Quantity: 1}},
	}
	req.Normalize()

	assert.Equal(t, "flu", req.Diagnosis)
	assert.Nil(t, req.SpecialInstructions)
	require.NotNil(t, req.Notes)
	assert.Equal(t, "follow up in one week", *req.Notes)
	assert.Equal(t, "Aspirin", req.Medications[0].Name)
}

func TestMedicalRecordJSONUsesClientFieldNames(t *testing.T) {
	rec := MedicalRecord{IsAcceptedStatus: RecordStatusPending, Medications: Medications{}}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"id", "patientId", "doctorId", "isAcceptedStatus", "createdAt", "updatedAt", "medications"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "doctor")
	assert.Equal(t, "pending", m["isAcceptedStatus"])
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("PATIENT")
	require.NoError(t, err)
	assert.Equal(t, RolePatient, r)

	_, err = ParseRole("nurse")
	assert.Error(t, err)
}
