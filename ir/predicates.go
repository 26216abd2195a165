package ir

// ValidPointee reports whether a pointer may point at a type of kind k.
func ValidPointee(k Kind) bool {
	return k != KindVoid && k != KindLabel && k != KindMetadata
}

// ValidArrayElement reports whether an array may hold elements of kind k.
func ValidArrayElement(k Kind) bool {
	return k != KindVoid && k != KindLabel && k != KindMetadata && k != KindFunction
}

// ValidStructMember reports whether a struct may have a member of kind k.
func ValidStructMember(k Kind) bool {
	return ValidArrayElement(k)
}

// ValidVectorElement reports whether a vector may hold elements of kind k.
func ValidVectorElement(k Kind) bool {
	switch k {
	case KindInteger, KindHalf, KindFloat, KindDouble, KindPointer:
		return true
	}
	return false
}

// ValidParam reports whether a function may take a parameter of kind k.
func ValidParam(k Kind) bool {
	return k != KindVoid && k != KindFunction
}

// ValidReturn reports whether a function may return kind k.
func ValidReturn(k Kind) bool {
	return k != KindFunction && k != KindLabel && k != KindMetadata
}
