package datamodel

// Global attribute IDs, present on every cluster instance.
const (
	GlobalAttrClusterRevision      AttributeID = 0xFFFD
	GlobalAttrFeatureMap           AttributeID = 0xFFFC
	GlobalAttrAttributeList        AttributeID = 0xFFFB
	GlobalAttrAcceptedCommandList  AttributeID = 0xFFF9
	GlobalAttrGeneratedCommandList AttributeID = 0xFFF8
)

// IsGlobalAttribute reports whether id is a global attribute.
func IsGlobalAttribute(id AttributeID) bool {
	return id >= GlobalAttrGeneratedCommandList && id <= GlobalAttrClusterRevision
}

// GlobalAttributeEntries returns the standard global attribute entries.
func GlobalAttributeEntries() []AttributeEntry {
	viewPriv := PrivilegeView
	return []AttributeEntry{
		{ID: GlobalAttrClusterRevision, Quality: AttrQualityFixed, ReadPrivilege: &viewPriv},
		{ID: GlobalAttrFeatureMap, Quality: AttrQualityFixed, ReadPrivilege: &viewPriv},
		{ID: GlobalAttrAttributeList, Quality: AttrQualityFixed | AttrQualityList, ReadPrivilege: &viewPriv},
		{ID: GlobalAttrAcceptedCommandList, Quality: AttrQualityFixed | AttrQualityList, ReadPrivilege: &viewPriv},
		{ID: GlobalAttrGeneratedCommandList, Quality: AttrQualityFixed | AttrQualityList, ReadPrivilege: &viewPriv},
	}
}

// MergeAttributeLists combines cluster-specific attributes with the
// global attributes every cluster must expose.
func MergeAttributeLists(clusterAttrs []AttributeEntry) []AttributeEntry {
	globals := GlobalAttributeEntries()
	result := make([]AttributeEntry, 0, len(clusterAttrs)+len(globals))
	result = append(result, clusterAttrs...)
	result = append(result, globals...)
	return result
}
