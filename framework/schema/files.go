package schema

import (
	"fmt"
	"strings"
)

// Dir is a schema directory under the schema root, one per API resource.
type Dir string

const (
	Tags     Dir = "tags"
	Articles Dir = "articles"
	Users    Dir = "users"
	Profiles Dir = "profiles"
)

// FileSuffix is appended to a schema name to form its file name.
const FileSuffix = "_schema.json"

// File identifies one schema file. Only the values declared in this package exist, so a File
// always names a directory and file that belong together.
type File struct {
	dir  Dir
	name string
}

//nolint:gochecknoglobals
var (
	TagsGET = File{Tags, "GET_tags"}

	ArticlesGET          = File{Articles, "GET_articles"}
	ArticlesPOST         = File{Articles, "POST_articles"}
	ArticlesPUT          = File{Articles, "PUT_articles"}
	ArticlesDELETE       = File{Articles, "DELETE_articles"}
	ArticlesFavoriteGET  = File{Articles, "GET_articles_favorite"}
	ArticlesUserArticles = File{Articles, "GET_user_articles"}

	UsersLogin              = File{Users, "POST_users_login"}
	UsersInvalidLogin       = File{Users, "POST_users_invalid_login"}
	UsersBlankEmailLogin    = File{Users, "POST_users_blank_email_login"}
	UsersBlankPasswordLogin = File{Users, "POST_users_blank_password_login"}
	UsersSignupErrors       = File{Users, "POST_users_invalid_signup"}
	UserGET                 = File{Users, "GET_user"}

	ProfileGET = File{Profiles, "GET_profile"}
)

//nolint:gochecknoglobals
var allFiles = []File{
	TagsGET,
	ArticlesGET, ArticlesPOST, ArticlesPUT, ArticlesDELETE, ArticlesFavoriteGET, ArticlesUserArticles,
	UsersLogin, UsersInvalidLogin, UsersBlankEmailLogin, UsersBlankPasswordLogin, UsersSignupErrors, UserGET,
	ProfileGET,
}

func (f File) Dir() Dir { return f.dir }

func (f File) Name() string { return f.name }

// FileName is the name of the file on disk, such as "GET_tags_schema.json".
func (f File) FileName() string { return f.name + FileSuffix }

// IsDefined is false for the zero File.
func (f File) IsDefined() bool { return f.name != "" }

func (f File) String() string { return string(f.dir) + "/" + f.name }

// Files returns every known schema file.
func Files() []File {
	return append([]File(nil), allFiles...)
}

// FilesIn returns the schema files belonging to one directory.
func FilesIn(dir Dir) []File {
	var ret []File
	for _, f := range allFiles {
		if f.dir == dir {
			ret = append(ret, f)
		}
	}
	return ret
}

// Dirs returns every schema directory.
func Dirs() []Dir {
	return []Dir{Tags, Articles, Users, Profiles}
}

// Lookup finds a schema file by directory and name. The name may include FileSuffix.
func Lookup(dir, name string) (File, error) {
	name = strings.TrimSuffix(name, FileSuffix)
	for _, f := range allFiles {
		if string(f.dir) == dir && f.name == name {
			return f, nil
		}
	}
	for _, f := range allFiles {
		if f.name == name {
			return File{}, fmt.Errorf("schema %q belongs in directory %q, not %q", name, f.dir, dir)
		}
	}
	return File{}, fmt.Errorf("unknown schema %s/%s", dir, name)
}
