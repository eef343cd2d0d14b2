package ans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/slot"
)

func TestSlots_Lifecycle(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.svc.AddSlotByType(h.app, slot.TypeSocialCommunication))
	require.NoError(t, h.svc.AddSlots(h.app, []slot.Slot{
		slot.New(slot.TypeServiceInformation),
		slot.New(slot.TypeContentInformation),
	}))

	slots, err := h.svc.GetSlots(h.app)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, slot.TypeSocialCommunication, slots[0].Type)
	assert.Equal(t, slot.TypeServiceInformation, slots[1].Type)
	assert.Equal(t, slot.TypeContentInformation, slots[2].Type)

	s, err := h.svc.GetSlot(h.app, slot.TypeSocialCommunication)
	require.NoError(t, err)
	assert.Equal(t, slot.LevelHigh, s.Level)

	require.NoError(t, h.svc.RemoveSlot(h.app, slot.TypeSocialCommunication))
	_, err = h.svc.GetSlot(h.app, slot.TypeSocialCommunication)
	require.ErrorIs(t, err, anserr.ErrSlotNotExist)

	require.NoError(t, h.svc.RemoveAllSlots(h.app))
	slots, err = h.svc.GetSlots(h.app)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlots_AddOverwrites(t *testing.T) {
	h := newHarness(t)

	s := slot.New(slot.TypeContentInformation)
	s.Description = "first"
	require.NoError(t, h.svc.AddSlot(h.app, s))

	s.Description = "second"
	s.Level = slot.LevelLow
	require.NoError(t, h.svc.AddSlot(h.app, s))

	got, err := h.svc.GetSlot(h.app, slot.TypeContentInformation)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Description)
	assert.Equal(t, slot.LevelLow, got.Level)

	n, err := h.svc.GetSlotNumByBundle(h.system, appBundle)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSlots_AddAllIsAtomic(t *testing.T) {
	h := newHarness(t)

	bad := slot.New(slot.TypeContentInformation)
	bad.Level = slot.Level(9)

	err := h.svc.AddSlots(h.app, []slot.Slot{slot.New(slot.TypeServiceInformation), bad})
	require.ErrorIs(t, err, anserr.ErrInvalidParam)

	slots, err := h.svc.GetSlots(h.app)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlots_ScopedToBundle(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.svc.AddSlotByType(h.app, slot.TypeSocialCommunication))

	_, err := h.svc.GetSlot(h.other, slot.TypeSocialCommunication)
	require.ErrorIs(t, err, anserr.ErrSlotNotExist)
}

func TestSlots_ByBundle(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.GetSlotsByBundle(h.app, appBundle)
	require.ErrorIs(t, err, anserr.ErrNonSystemApp)

	_, err = h.svc.SetSlotByBundle(h.app, appBundle, slot.Patch{Type: slot.TypeSocialCommunication})
	require.ErrorIs(t, err, anserr.ErrNonSystemApp)

	_, err = h.svc.GetSlotNumByBundle(h.system, "")
	require.ErrorIs(t, err, anserr.ErrInvalidBundle)

	// A missing slot is created from the type defaults before merging.
	got, err := h.svc.SetSlotByBundle(h.system, appBundle, slot.Patch{
		Type:      slot.TypeContentInformation,
		BypassDnd: ptr(true),
		Sound:     ptr("chime.ogg"),
	})
	require.NoError(t, err)
	assert.True(t, got.BypassDnd)
	assert.Equal(t, "chime.ogg", got.SoundOrEmpty())
	assert.Equal(t, slot.LevelMin, got.Level)
	assert.False(t, got.Disabled)

	// Unsupplied fields are left untouched.
	got, err = h.svc.SetSlotByBundle(h.system, appBundle, slot.Patch{
		Type:  slot.TypeContentInformation,
		Level: ptr(slot.LevelHigh),
	})
	require.NoError(t, err)
	assert.Equal(t, slot.LevelHigh, got.Level)
	assert.True(t, got.BypassDnd)
	assert.Equal(t, "chime.ogg", got.SoundOrEmpty())

	slots, err := h.svc.GetSlotsByBundle(h.system, appBundle)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	own, err := h.svc.GetSlot(h.app, slot.TypeContentInformation)
	require.NoError(t, err)
	assert.Equal(t, slot.LevelHigh, own.Level)
}
