// Package config loads the two kinds of YAML settings kosu works with.
//
// A Course is one course manifest (<course>.yaml) decoded with yaml.v3; the
// curriculum keeps the section order of the file. A Control holds the
// cross-course settings of the optional .kosu.yaml control file, read once at
// startup through a dedicated viper instance so KOSU_* environment variables
// can override it.
package config
