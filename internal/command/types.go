package command

func (c Initialize) CommandType() Type { return TypeInitialize }
func (c Save) CommandType() Type { return TypeSave }
func (c SaveAs) CommandType() Type { return TypeSaveAs }
func (c Rename) CommandType() Type { return TypeRename }
func (c Reset) CommandType() Type { return TypeReset }
func (c Delete) CommandType() Type { return TypeDelete }
func (c AddLayoutSection) CommandType() Type { return TypeAddLayoutSection }
func (c RemoveLayoutSection) CommandType() Type { return TypeRemoveLayoutSection }
func (c ChangeInsightProperties) CommandType() Type { return TypeChangeInsightProperties }
func (c ChangeWidgetHeader) CommandType() Type { return TypeChangeWidgetHeader }
func (c ChangeFilterContext) CommandType() Type { return TypeChangeFilterContext }

func (c Initialize) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c Save) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c SaveAs) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c Rename) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c Reset) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c Delete) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c AddLayoutSection) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c RemoveLayoutSection) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c ChangeInsightProperties) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c ChangeWidgetHeader) withMeta(m Meta) Command {
	c.Meta = m
	return c
}

func (c ChangeFilterContext) withMeta(m Meta) Command {
	c.Meta = m
	return c
}
