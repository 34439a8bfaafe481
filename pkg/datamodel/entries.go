package datamodel

// AttributeEntry describes an attribute's metadata, used for discovery
// and access validation.
type AttributeEntry struct {
	ID AttributeID

	Quality AttributeQuality

	// ReadPrivilege is the minimum privilege required to read.
	// nil means the attribute is not readable.
	ReadPrivilege *Privilege

	// WritePrivilege is the minimum privilege required to write.
	// nil means the attribute is not writable.
	WritePrivilege *Privilege
}

// IsReadable reports whether the attribute can be read.
func (a *AttributeEntry) IsReadable() bool {
	return a.ReadPrivilege != nil
}

// IsWritable reports whether the attribute can be written.
func (a *AttributeEntry) IsWritable() bool {
	return a.WritePrivilege != nil
}

// HasQuality reports whether the attribute has the given quality flags.
func (a *AttributeEntry) HasQuality(q AttributeQuality) bool {
	return a.Quality&q != 0
}

// CommandEntry describes an accepted command's metadata.
type CommandEntry struct {
	ID CommandID

	Quality CommandQuality

	// InvokePrivilege is the minimum privilege required to invoke.
	InvokePrivilege Privilege
}

// HasQuality reports whether the command has the given quality flags.
func (c *CommandEntry) HasQuality(q CommandQuality) bool {
	return c.Quality&q != 0
}

// NewReadOnlyAttribute creates a read-only attribute entry.
func NewReadOnlyAttribute(id AttributeID, quality AttributeQuality, readPriv Privilege) AttributeEntry {
	return AttributeEntry{
		ID:            id,
		Quality:       quality,
		ReadPrivilege: &readPriv,
	}
}

// NewReadWriteAttribute creates a read-write attribute entry.
func NewReadWriteAttribute(id AttributeID, quality AttributeQuality, readPriv, writePriv Privilege) AttributeEntry {
	return AttributeEntry{
		ID:             id,
		Quality:        quality,
		ReadPrivilege:  &readPriv,
		WritePrivilege: &writePriv,
	}
}

// NewCommandEntry creates a command entry.
func NewCommandEntry(id CommandID, quality CommandQuality, invokePriv Privilege) CommandEntry {
	return CommandEntry{
		ID:              id,
		Quality:         quality,
		InvokePrivilege: invokePriv,
	}
}

// FindAttribute returns the entry with the given ID, or nil.
func FindAttribute(list []AttributeEntry, id AttributeID) *AttributeEntry {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

// FindCommand returns the entry with the given ID, or nil.
func FindCommand(list []CommandEntry, id CommandID) *CommandEntry {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}
